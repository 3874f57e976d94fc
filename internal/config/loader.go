package config

import (
	"context"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if MOTION_CONFIG is set
//  3. env (prefix MOTION_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("MOTION_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, wrapLoadError(err)
		}
	}

	// Environment variables: MOTION_LOG_LEVEL, MOTION_PENDULUM__COOLDOWN_MS, ...
	// A double underscore separates nesting levels so single underscores
	// survive in the koanf struct tags (cooldown_ms and friends).
	envProvider := env.Provider("MOTION_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "MOTION_"))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, wrapLoadError(err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, wrapLoadError(err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations that would make the engine silently
// misbehave rather than just detect poorly.
func (c *Config) validate() error {
	if c.IngestQueueSize < 1 {
		return ErrInvalidQueueSize
	}
	if c.TelemetryBufferSize < 2 || c.SegmentMaxSamples < 2 {
		return ErrInvalidBufferSize
	}
	if c.ROM.ClampMaxDeg <= 0 {
		return ErrInvalidClampBound
	}
	if c.Calibration.ScatterThresholdM <= 0 || c.Calibration.MaxRecaptureAttempts < 1 {
		return ErrInvalidCalibration
	}
	for _, d := range []DetectionConfig{c.Pendulum, c.Circular, c.Linear} {
		if d.CooldownMS < 0 || d.MinROMDeg < 0 {
			return ErrInvalidDetection
		}
	}
	return nil
}
