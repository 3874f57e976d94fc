package rom

import "github.com/physioflow/motion/pkg/logger"

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithPlaneHysteresis sets how many consecutive segments must disagree with
// the current plane before the calculator switches.
func WithPlaneHysteresis(frames int) Option {
	return func(c *Calculator) {
		if frames > 0 {
			c.planeHysteresis = frames
		}
	}
}

// WithMedianWindow sets the running-median window applied before arc and
// radius computation. A window below 2 disables filtering.
func WithMedianWindow(window int) Option {
	return func(c *Calculator) {
		if window >= 0 {
			c.medianWindow = window
		}
	}
}

// WithNoiseFloor sets the minimum per-step distance, in metres, counted
// toward arc length.
func WithNoiseFloor(m float64) Option {
	return func(c *Calculator) {
		if m >= 0 {
			c.noiseFloor = m
		}
	}
}

// WithClampMax sets the upper ROM bound in degrees.
func WithClampMax(deg float64) Option {
	return func(c *Calculator) {
		if deg > 0 {
			c.clampMax = deg
		}
	}
}

// WithAngleOffset sets a constant offset, in degrees, added to every
// computed angle. Used to map mechanical zero to clinical zero.
func WithAngleOffset(deg float64) Option {
	return func(c *Calculator) {
		c.angleOffset = deg
	}
}

// WithLogger sets the logger used for clamp and degeneracy warnings.
func WithLogger(log logger.Logger) Option {
	return func(c *Calculator) {
		if log != nil {
			c.log = log
		}
	}
}
