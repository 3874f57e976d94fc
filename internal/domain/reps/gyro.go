package reps

import (
	"context"
	"math"
	"time"

	"github.com/physioflow/motion/internal/domain/filter"
	"github.com/physioflow/motion/internal/domain/gate"
	"github.com/physioflow/motion/internal/domain/model"
	"github.com/physioflow/motion/pkg/metrics"
)

// Gyro is the low-latency advisory detector. It Kalman-filters the dominant
// gyroscope axis and reports rate-sign reversals ahead of the position path.
// It never emits RepetitionEvents and never advances a repetition count;
// the authoritative count belongs to the archetype's position detector.
type Gyro struct {
	k        *filter.Kalman
	cooldown *gate.Cooldown

	on, off   float64
	minROMDeg float64

	// currentROM reports the in-progress ROM from the authoritative path,
	// used as a floor so wrist flicks do not fire advisories. Nil disables
	// the floor.
	currentROM func() float64

	prev      time.Time
	havePrev  bool
	lastSign  int
	rearmed   bool
	reversals int
}

// GyroOption applies a configuration option to the advisory detector.
type GyroOption func(*Gyro)

// WithGyroNoise sets the Kalman process and measurement noise covariances.
func WithGyroNoise(q, r float64) GyroOption {
	return func(d *Gyro) {
		d.k = filter.New(filter.WithProcessNoise(q), filter.WithMeasurementNoise(r))
	}
}

// WithGyroCooldown sets the refractory window between advisories.
func WithGyroCooldown(w time.Duration) GyroOption {
	return func(d *Gyro) {
		if w >= 0 {
			d.cooldown = gate.NewCooldown(w)
		}
	}
}

// WithRateHysteresis sets the filtered-rate thresholds, in rad/s: a sign is
// registered above on and the trigger re-arms below off.
func WithRateHysteresis(on, off float64) GyroOption {
	return func(d *Gyro) {
		if on > 0 {
			d.on = on
		}
		if off > 0 && off < d.on {
			d.off = off
		}
	}
}

// WithGyroMinROM sets the minimum in-progress ROM, in degrees, for an
// advisory to fire.
func WithGyroMinROM(deg float64) GyroOption {
	return func(d *Gyro) {
		if deg >= 0 {
			d.minROMDeg = deg
		}
	}
}

// WithCurrentROM wires the in-progress ROM source from the session.
func WithCurrentROM(fn func() float64) GyroOption {
	return func(d *Gyro) { d.currentROM = fn }
}

// NewGyro creates the advisory gyroscope detector.
func NewGyro(opts ...GyroOption) *Gyro {
	d := &Gyro{
		k:         filter.New(filter.WithProcessNoise(1.0), filter.WithMeasurementNoise(0.05)),
		cooldown:  gate.NewCooldown(300 * time.Millisecond),
		on:        0.5,
		off:       0.2,
		minROMDeg: 8,
		rearmed:   true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Gyro) Strategy() string { return StrategyGyro }

// Reversals returns how many advisories have fired.
func (d *Gyro) Reversals() int { return d.reversals }

// Reset clears all state for a new session.
func (d *Gyro) Reset() {
	d.k.Reset()
	d.cooldown.Reset()
	d.havePrev = false
	d.lastSign = 0
	d.rearmed = true
	d.reversals = 0
}

// Offer feeds one IMU sample and reports whether an advisory reversal fired.
func (d *Gyro) Offer(ctx context.Context, s model.IMUSample) bool {
	rate := dominantAxis(s.Gyro)

	if !d.havePrev {
		d.prev = s.TS
		d.havePrev = true
		d.k.Update(rate, 0.01)
		return false
	}
	dt := s.TS.Sub(d.prev).Seconds()
	if dt <= 0 {
		return false
	}
	d.prev = s.TS

	v := d.k.Update(rate, dt).Value
	if math.Abs(v) <= d.off {
		d.rearmed = true
		return false
	}

	var sign int
	switch {
	case v >= d.on:
		sign = 1
	case v <= -d.on:
		sign = -1
	default:
		return false
	}
	if !d.rearmed {
		return false
	}

	fired := false
	if d.lastSign != 0 && sign != d.lastSign {
		if (d.currentROM == nil || d.currentROM() >= d.minROMDeg) && d.cooldown.TryFire(s.TS) {
			d.reversals++
			metrics.RecordAdvisoryReversal()
			fired = true
		}
	}
	d.lastSign = sign
	d.rearmed = false
	return fired
}

// dominantAxis returns the component with the largest magnitude, preserving
// its sign, so single-plane movements read as one scalar rate.
func dominantAxis(v model.Vec3) float64 {
	out := v.X
	if math.Abs(v.Y) > math.Abs(out) {
		out = v.Y
	}
	if math.Abs(v.Z) > math.Abs(out) {
		out = v.Z
	}
	return out
}
