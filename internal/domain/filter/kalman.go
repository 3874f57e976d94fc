// Package filter provides a one-dimensional Kalman filter with a
// constant-velocity transition model.
//
// The state is [value, rate]. It serves two roles: generic low-lag smoothing
// of noisy scalar streams, and rate-sign reversal detection in the
// low-latency repetition detector, where measurements are gyroscope angles.
package filter

import "math"

// Default noise covariances. Process noise trades smoothing lag for
// responsiveness; measurement noise models sensor jitter.
const (
	defaultProcessNoise     = 0.01
	defaultMeasurementNoise = 0.1
	initialCovariance       = 1.0
)

// State is the filter estimate after an update.
type State struct {
	Value float64 // filtered measurement
	Rate  float64 // filtered first derivative, per second
}

// Kalman is a 2-state scalar filter. Not safe for concurrent use; each
// detector owns its own instance.
type Kalman struct {
	state State

	// Covariance (2x2, row-major): p[0]=P00 p[1]=P01 p[2]=P10 p[3]=P11
	p [4]float64

	q float64 // process noise
	r float64 // measurement noise

	primed bool
}

// Option applies a configuration option to a Kalman filter.
type Option func(*Kalman)

// WithProcessNoise sets the process noise covariance.
func WithProcessNoise(q float64) Option {
	return func(k *Kalman) {
		if q > 0 {
			k.q = q
		}
	}
}

// WithMeasurementNoise sets the measurement noise covariance.
func WithMeasurementNoise(r float64) Option {
	return func(k *Kalman) {
		if r > 0 {
			k.r = r
		}
	}
}

// New creates a filter with the configured noise covariances.
func New(opts ...Option) *Kalman {
	k := &Kalman{
		q: defaultProcessNoise,
		r: defaultMeasurementNoise,
	}
	for _, opt := range opts {
		opt(k)
	}
	k.Reset()
	return k
}

// Reset returns the filter to its uninitialized state.
func (k *Kalman) Reset() {
	k.state = State{}
	k.p = [4]float64{initialCovariance, 0, 0, initialCovariance}
	k.primed = false
}

// State returns the current estimate without updating.
func (k *Kalman) State() State { return k.state }

// Update runs one predict/update cycle against a new measurement taken dt
// seconds after the previous one. A dt ≤ 0 (duplicate or out-of-order
// timestamp) is a no-op so the transition matrix never degenerates.
func (k *Kalman) Update(measurement, dt float64) State {
	if dt <= 0 || math.IsNaN(measurement) || math.IsInf(measurement, 0) {
		return k.state
	}

	// First measurement seeds the value directly; there is no rate
	// information yet.
	if !k.primed {
		k.state = State{Value: measurement}
		k.primed = true
		return k.state
	}

	// Predict: x' = F x with F = [1 dt; 0 1].
	k.state.Value += k.state.Rate * dt

	// P' = F P Fᵀ + Q, written out for the 2x2 case.
	p00 := k.p[0] + dt*(k.p[2]+k.p[1]) + dt*dt*k.p[3]
	p01 := k.p[1] + dt*k.p[3]
	p10 := k.p[2] + dt*k.p[3]
	p11 := k.p[3]
	k.p = [4]float64{p00 + k.q*dt, p01, p10, p11 + k.q*dt}

	// Update with H = [1 0]: innovation covariance S = P00 + r.
	s := k.p[0] + k.r
	k0 := k.p[0] / s
	k1 := k.p[2] / s

	y := measurement - k.state.Value
	k.state.Value += k0 * y
	k.state.Rate += k1 * y

	// P = (I - K H) P.
	p00 = (1 - k0) * k.p[0]
	p01 = (1 - k0) * k.p[1]
	p10 = k.p[2] - k1*k.p[0]
	p11 = k.p[3] - k1*k.p[1]
	k.p = [4]float64{p00, p01, p10, p11}

	// Guard against numerical blow-up from degenerate input runs.
	if !k.finite() {
		k.Reset()
	}
	return k.state
}

func (k *Kalman) finite() bool {
	for _, v := range [2]float64{k.state.Value, k.state.Rate} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, v := range k.p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
