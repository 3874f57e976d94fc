// Package synth generates deterministic motion streams: scripted exercise
// trajectories used by the demo binary and the end-to-end session tests.
package synth

import (
	"math"
	"math/rand"
	"time"

	"github.com/physioflow/motion/internal/domain/model"
)

// Pendulum simulates a limb of the given length swinging in the X-Y plane
// around an anchor at the origin. arcM is the outbound arc per swing in
// metres, freqHz the full-cycle frequency.
func Pendulum(start time.Time, lengthM, arcM, freqHz, seconds float64, hz int) []model.PositionSample {
	amplitude := arcM / lengthM
	n := int(seconds * float64(hz))
	out := make([]model.PositionSample, n)
	for i := range out {
		t := float64(i) / float64(hz)
		theta := amplitude * math.Sin(2*math.Pi*freqHz*t)
		out[i] = model.PositionSample{
			TS:  start.Add(time.Duration(float64(time.Second) * t)),
			Pos: model.Vec3{X: lengthM * math.Sin(theta), Y: -lengthM * math.Cos(theta)},
		}
	}
	return out
}

// Circle simulates arm circles of the given radius around center, one
// revolution per periodS seconds. A negative period runs clockwise.
func Circle(start time.Time, center model.Vec3, radiusM, periodS, seconds float64, hz int) []model.PositionSample {
	n := int(seconds * float64(hz))
	out := make([]model.PositionSample, n)
	for i := range out {
		t := float64(i) / float64(hz)
		w := 2 * math.Pi / periodS
		out[i] = model.PositionSample{
			TS: start.Add(time.Duration(float64(time.Second) * t)),
			Pos: center.Add(model.Vec3{
				X: radiusM * math.Cos(w*t),
				Y: radiusM * math.Sin(w*t),
			}),
		}
	}
	return out
}

// Slide simulates a straight reach along +X at a constant speed.
func Slide(start time.Time, speedMS, seconds float64, hz int) []model.PositionSample {
	n := int(seconds * float64(hz))
	out := make([]model.PositionSample, n)
	for i := range out {
		t := float64(i) / float64(hz)
		out[i] = model.PositionSample{
			TS:  start.Add(time.Duration(float64(time.Second) * t)),
			Pos: model.Vec3{X: speedMS * t, Y: -0.7},
		}
	}
	return out
}

// SwingGyro simulates the gyroscope trace of a swing: a sinusoidal Z-axis
// rate with the given peak, matching the phase of Pendulum at the same
// frequency.
func SwingGyro(start time.Time, peakRate, freqHz, seconds float64, hz int) []model.IMUSample {
	n := int(seconds * float64(hz))
	out := make([]model.IMUSample, n)
	for i := range out {
		t := float64(i) / float64(hz)
		out[i] = model.IMUSample{
			TS:   start.Add(time.Duration(float64(time.Second) * t)),
			Gyro: model.Vec3{Z: peakRate * math.Cos(2*math.Pi*freqHz*t)},
		}
	}
	return out
}

// WithNoise returns a copy of samples with bounded uniform position noise,
// deterministic for a given seed.
func WithNoise(samples []model.PositionSample, noiseM float64, seed int64) []model.PositionSample {
	rng := rand.New(rand.NewSource(seed))
	out := make([]model.PositionSample, len(samples))
	for i, s := range samples {
		out[i] = s
		out[i].Pos = s.Pos.Add(model.Vec3{
			X: noiseM * (2*rng.Float64() - 1),
			Y: noiseM * (2*rng.Float64() - 1),
			Z: noiseM * (2*rng.Float64() - 1),
		})
	}
	return out
}
