package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/physioflow/motion/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.IngestQueueSize, convey.ShouldEqual, 4096)
				convey.So(cfg.ROM.ClampMaxDeg, convey.ShouldEqual, 180)
				convey.So(cfg.ROM.PlaneHysteresisFrames, convey.ShouldEqual, 5)
				convey.So(cfg.Pendulum.CooldownMS, convey.ShouldEqual, 400)
				convey.So(cfg.Circular.MinRadiusM, convey.ShouldEqual, 0.03)
				convey.So(cfg.Calibration.MaxRecaptureAttempts, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MOTION_LOG_LEVEL", "debug")
			_ = os.Setenv("MOTION_INGEST_QUEUE_SIZE", "512")
			_ = os.Setenv("MOTION_ROM__CLAMP_MAX_DEG", "160")
			_ = os.Setenv("MOTION_PENDULUM__COOLDOWN_MS", "250")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.IngestQueueSize, convey.ShouldEqual, 512)
				convey.So(cfg.ROM.ClampMaxDeg, convey.ShouldEqual, 160.0)
				convey.So(cfg.Pendulum.CooldownMS, convey.ShouldEqual, 250)
				// Untouched fields keep their defaults.
				convey.So(cfg.Circular.CooldownMS, convey.ShouldEqual, 500)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			f, err := os.CreateTemp(t.TempDir(), "motion-*.yaml")
			convey.So(err, convey.ShouldBeNil)
			_, err = f.WriteString("log_level: warn\nrom:\n  clamp_max_deg: 150\npendulum:\n  min_rom_deg: 12\n")
			convey.So(err, convey.ShouldBeNil)
			convey.So(f.Close(), convey.ShouldBeNil)

			clearConfigEnvVars()
			_ = os.Setenv("MOTION_CONFIG", f.Name())
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
				convey.So(cfg.ROM.ClampMaxDeg, convey.ShouldEqual, 150.0)
				convey.So(cfg.Pendulum.MinROMDeg, convey.ShouldEqual, 12.0)
			})
		})

		convey.Convey("When the config is invalid", func() {
			clearConfigEnvVars()
			_ = os.Setenv("MOTION_ROM__CLAMP_MAX_DEG", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails explicitly", func() {
				convey.So(err, convey.ShouldEqual, config.ErrInvalidClampBound)
			})
		})
	})
}

func TestByArchetype(t *testing.T) {
	convey.Convey("Given default config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then archetype lookup returns the matching thresholds", func() {
			convey.So(cfg.ByArchetype("circular").CooldownMS, convey.ShouldEqual, 500)
			convey.So(cfg.ByArchetype("linear").TravelDistanceM, convey.ShouldEqual, 0.25)
			convey.So(cfg.ByArchetype("pendulum").CooldownMS, convey.ShouldEqual, 400)
			convey.So(cfg.ByArchetype("unknown").CooldownMS, convey.ShouldEqual, 400)
		})
	})
}

func clearConfigEnvVars() {
	for _, k := range []string{
		"MOTION_CONFIG",
		"MOTION_LOG_LEVEL",
		"MOTION_INGEST_QUEUE_SIZE",
		"MOTION_ROM__CLAMP_MAX_DEG",
		"MOTION_PENDULUM__COOLDOWN_MS",
		"MOTION_PENDULUM__MIN_ROM_DEG",
	} {
		_ = os.Unsetenv(k)
	}
}
