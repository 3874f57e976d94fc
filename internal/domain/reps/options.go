package reps

import (
	"time"

	"github.com/physioflow/motion/pkg/logger"
)

// settings holds the tunables shared by the position-based detectors. Each
// constructor seeds archetype-appropriate defaults before applying options.
type settings struct {
	cooldown        time.Duration
	minROMDeg       float64
	minDistanceM    float64
	speedOn         float64
	speedOff        float64
	minRadiusM      float64
	centroidAlpha   float64
	warmupSamples   int
	maxStepAngleRad float64
	travelDistanceM float64
	segmentMax      int
	log             logger.Logger
}

func defaultSettings() settings {
	return settings{
		cooldown:        400 * time.Millisecond,
		minROMDeg:       10,
		minDistanceM:    0.10,
		speedOn:         0.15,
		speedOff:        0.05,
		minRadiusM:      0.03,
		centroidAlpha:   0.05,
		warmupSamples:   100,
		maxStepAngleRad: 1.0,
		travelDistanceM: 0.25,
		segmentMax:      600,
		log:             logger.Nop(),
	}
}

// Option applies a configuration option to a position-based detector.
type Option func(*settings)

// WithCooldown sets the refractory window between counted repetitions.
func WithCooldown(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.cooldown = d
		}
	}
}

// WithMinROM sets the minimum range of motion, in degrees, for a candidate
// repetition to be counted.
func WithMinROM(deg float64) Option {
	return func(s *settings) {
		if deg >= 0 {
			s.minROMDeg = deg
		}
	}
}

// WithMinDistance sets the minimum excursion from the repetition anchor, in
// metres, for a reversal to be treated as a real swing.
func WithMinDistance(m float64) Option {
	return func(s *settings) {
		if m > 0 {
			s.minDistanceM = m
		}
	}
}

// WithReversalSpeeds sets the speed hysteresis thresholds, in m/s: motion is
// considered started above on and stopped below off.
func WithReversalSpeeds(on, off float64) Option {
	return func(s *settings) {
		if on > 0 {
			s.speedOn = on
		}
		if off > 0 {
			s.speedOff = off
		}
	}
}

// WithMinRadius sets the minimum circle radius, in metres, for circular
// angle accumulation.
func WithMinRadius(m float64) Option {
	return func(s *settings) {
		if m > 0 {
			s.minRadiusM = m
		}
	}
}

// WithCentroidAlpha sets the EMA coefficient for the circular centroid.
func WithCentroidAlpha(a float64) Option {
	return func(s *settings) {
		if a > 0 && a <= 1 {
			s.centroidAlpha = a
		}
	}
}

// WithCentroidWarmup sets how many samples seed the circular centroid with
// an arithmetic mean before angle accumulation starts.
func WithCentroidWarmup(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.warmupSamples = n
		}
	}
}

// WithMaxStepAngle caps the per-sample angle step, in radians, so a tracking
// glitch cannot complete a revolution in one frame.
func WithMaxStepAngle(rad float64) Option {
	return func(s *settings) {
		if rad > 0 {
			s.maxStepAngleRad = rad
		}
	}
}

// WithTravelDistance sets the linear-archetype travel threshold in metres.
func WithTravelDistance(m float64) Option {
	return func(s *settings) {
		if m > 0 {
			s.travelDistanceM = m
		}
	}
}

// WithSegmentCapacity bounds the per-repetition trajectory snapshot.
func WithSegmentCapacity(n int) Option {
	return func(s *settings) {
		if n > 1 {
			s.segmentMax = n
		}
	}
}

// WithLogger sets the detector logger.
func WithLogger(log logger.Logger) Option {
	return func(s *settings) {
		if log != nil {
			s.log = log
		}
	}
}
