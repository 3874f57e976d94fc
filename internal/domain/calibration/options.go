package calibration

import "time"

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithScatterThreshold sets the maximum sub-sample distance from the
// capture centroid, in metres.
func WithScatterThreshold(m float64) Option {
	return func(e *Estimator) {
		if m > 0 {
			e.scatterThreshold = m
		}
	}
}

// WithMinSubSamples sets how many stability-gated sub-samples a capture needs.
func WithMinSubSamples(n int) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.minSubSamples = n
		}
	}
}

// WithMaxAttempts sets the per-posture recapture budget.
func WithMaxAttempts(n int) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithMaxAnchorStdDev sets the profile quality threshold, in metres.
func WithMaxAnchorStdDev(m float64) Option {
	return func(e *Estimator) {
		if m > 0 {
			e.maxAnchorStdDev = m
		}
	}
}

// WithClock overrides the profile timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) {
		if now != nil {
			e.now = now
		}
	}
}
