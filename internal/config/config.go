// Package config defines engine configuration structures and loading hooks.
//
// Every tunable threshold of the detection pipeline (cooldowns, hysteresis
// bands, variance limits, clamp bounds) lives here rather than as literals
// inside the strategies. Thresholds are the primary correctness lever of
// this engine and need offline tuning from logged anomalies.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import "context"

// Config contains process configuration for the motion engine.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr configures the optional Prometheus listen address,
	// e.g. ":9100". Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`

	// IngestQueueSize bounds the in-memory frame queue between the sample
	// producers and the detection worker.
	IngestQueueSize int `koanf:"ingest_queue_size"`

	// TelemetryBufferSize bounds the passive smoothness sample buffer.
	TelemetryBufferSize int `koanf:"telemetry_buffer_size"`

	// SegmentMaxSamples bounds a single repetition's trajectory segment.
	SegmentMaxSamples int `koanf:"segment_max_samples"`

	ROM         ROMConfig         `koanf:"rom"`
	Calibration CalibrationConfig `koanf:"calibration"`
	Smoothness  SmoothnessConfig  `koanf:"smoothness"`
	Gyro        GyroConfig        `koanf:"gyro"`

	// Per-archetype detection thresholds.
	Pendulum DetectionConfig `koanf:"pendulum"`
	Circular DetectionConfig `koanf:"circular"`
	Linear   DetectionConfig `koanf:"linear"`
}

// ROMConfig holds the range-of-motion calculator thresholds.
type ROMConfig struct {
	// PlaneHysteresisFrames is how many consecutive frames must favor an
	// alternative projection plane before the calculator switches to it.
	PlaneHysteresisFrames int `koanf:"plane_hysteresis_frames"`

	// MedianWindow is the median-filter window over projected points.
	// Values below 3 disable outlier smoothing.
	MedianWindow int `koanf:"median_window"`

	// NoiseFloorM drops inter-sample steps shorter than this from the arc
	// length, so tracker jitter does not accumulate into phantom motion.
	NoiseFloorM float64 `koanf:"noise_floor_m"`

	// ClampMaxDeg is the upper bound on reported ROM. Clamp triggers are
	// logged and counted so calibration regressions stay visible.
	ClampMaxDeg float64 `koanf:"clamp_max_deg"`

	// AngleOffsetDeg is added after conversion (posture-dependent zero).
	AngleOffsetDeg float64 `koanf:"angle_offset_deg"`
}

// CalibrationConfig holds the calibration estimator thresholds.
type CalibrationConfig struct {
	// ScatterThresholdM rejects a posture capture whose sub-samples spread
	// further than this from their centroid.
	ScatterThresholdM float64 `koanf:"scatter_threshold_m"`

	// MinSubSamples is the number of stability-gated sub-samples per posture.
	MinSubSamples int `koanf:"min_sub_samples"`

	// MaxRecaptureAttempts bounds rejected captures per posture before the
	// whole calibration fails.
	MaxRecaptureAttempts int `koanf:"max_recapture_attempts"`

	// MaxAnchorStdDevM invalidates a profile whose recomputed
	// anchor-to-posture distances spread beyond this.
	MaxAnchorStdDevM float64 `koanf:"max_anchor_stddev_m"`

	// DefaultSegmentLengthM is the assumed limb length when none is measured.
	DefaultSegmentLengthM float64 `koanf:"default_segment_length_m"`
}

// SmoothnessConfig holds the smoothness analyzer parameters.
type SmoothnessConfig struct {
	RecomputeIntervalMS int     `koanf:"recompute_interval_ms"`
	DropoutThresholdMS  int     `koanf:"dropout_threshold_ms"`
	JerkScale           float64 `koanf:"jerk_scale"`
	DirectionScale      float64 `koanf:"direction_scale"`
	VelocityWeight      float64 `koanf:"velocity_weight"`
	JerkWeight          float64 `koanf:"jerk_weight"`
	DirectionWeight     float64 `koanf:"direction_weight"`
}

// GyroConfig holds the advisory Kalman angular-velocity detector parameters.
type GyroConfig struct {
	ProcessNoise     float64 `koanf:"process_noise"`
	MeasurementNoise float64 `koanf:"measurement_noise"`
	CooldownMS       int     `koanf:"cooldown_ms"`

	// MinROMDeg is the externally supplied current-ROM floor below which a
	// rate reversal is not confirmed.
	MinROMDeg float64 `koanf:"min_rom_deg"`

	// RateHysteresisOn/Off bound the rate magnitude (rad/s) a reversal
	// must reach, and fall back under, to count.
	RateHysteresisOn  float64 `koanf:"rate_hysteresis_on"`
	RateHysteresisOff float64 `koanf:"rate_hysteresis_off"`
}

// DetectionConfig holds one archetype's repetition-detection thresholds.
type DetectionConfig struct {
	// CooldownMS is the refractory window between emitted repetitions.
	CooldownMS int `koanf:"cooldown_ms"`

	// MinROMDeg gates emission: candidates below it silently reset.
	MinROMDeg float64 `koanf:"min_rom_deg"`

	// MinDistanceM is the accumulated path length a pendulum repetition
	// must cover before a reversal can close it.
	MinDistanceM float64 `koanf:"min_distance_m"`

	// ReversalSpeedOn/Off is the hysteresis band (m/s) on velocity
	// magnitude confirming a direction reversal.
	ReversalSpeedOn  float64 `koanf:"reversal_speed_on"`
	ReversalSpeedOff float64 `koanf:"reversal_speed_off"`

	// MinRadiusM rejects circular-strategy samples too close to the
	// centroid, where per-step angles amplify noise.
	MinRadiusM float64 `koanf:"min_radius_m"`

	// CentroidAlpha is the EMA weight for the circular strategy's centroid
	// and rotation-frame smoothing.
	CentroidAlpha float64 `koanf:"centroid_alpha"`

	// CentroidWarmupSamples is how many samples seed the circular centroid
	// with an arithmetic mean before angle accumulation starts.
	CentroidWarmupSamples int `koanf:"centroid_warmup_samples"`

	// MaxStepAngleRad clamps a single circular angle increment; larger
	// jumps are tracker glitches, not motion.
	MaxStepAngleRad float64 `koanf:"max_step_angle_rad"`

	// TravelDistanceM is the linear strategy's firing threshold.
	TravelDistanceM float64 `koanf:"travel_distance_m"`
}

// New creates a Config using defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and currently
// unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		MetricsAddr:         "",
		IngestQueueSize:     4096,
		TelemetryBufferSize: 4096,
		SegmentMaxSamples:   600,
		ROM: ROMConfig{
			PlaneHysteresisFrames: 5,
			MedianWindow:          3,
			NoiseFloorM:           0.001,
			ClampMaxDeg:           180,
			AngleOffsetDeg:        0,
		},
		Calibration: CalibrationConfig{
			ScatterThresholdM:     0.06,
			MinSubSamples:         5,
			MaxRecaptureAttempts:  3,
			MaxAnchorStdDevM:      0.05,
			DefaultSegmentLengthM: 0.7,
		},
		Smoothness: SmoothnessConfig{
			RecomputeIntervalMS: 200,
			DropoutThresholdMS:  500,
			JerkScale:           0.5,
			DirectionScale:      120,
			VelocityWeight:      0.4,
			JerkWeight:          0.4,
			DirectionWeight:     0.2,
		},
		Gyro: GyroConfig{
			ProcessNoise:      1.0,
			MeasurementNoise:  0.05,
			CooldownMS:        300,
			MinROMDeg:         8,
			RateHysteresisOn:  0.5,
			RateHysteresisOff: 0.2,
		},
		Pendulum: DetectionConfig{
			CooldownMS:       400,
			MinROMDeg:        10,
			MinDistanceM:     0.10,
			ReversalSpeedOn:  0.15,
			ReversalSpeedOff: 0.05,
		},
		Circular: DetectionConfig{
			CooldownMS:            500,
			MinROMDeg:             5,
			MinRadiusM:            0.03,
			CentroidAlpha:         0.05,
			CentroidWarmupSamples: 100,
			MaxStepAngleRad:       1.0,
		},
		Linear: DetectionConfig{
			CooldownMS:      300,
			MinROMDeg:       0,
			TravelDistanceM: 0.25,
		},
	}
}

// ByArchetype returns the detection thresholds for the named archetype,
// falling back to pendulum for unknown names.
func (c *Config) ByArchetype(name string) DetectionConfig {
	switch name {
	case "circular":
		return c.Circular
	case "linear":
		return c.Linear
	default:
		return c.Pendulum
	}
}
