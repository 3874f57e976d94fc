package reps_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/physioflow/motion/internal/domain/model"
	"github.com/physioflow/motion/internal/domain/reps"
	"github.com/physioflow/motion/internal/domain/rom"
	. "github.com/smartystreets/goconvey/convey"
)

const sampleHz = 100

// pendulumSamples simulates a limb of the given length swinging through
// theta(t) = amplitude * sin(2*pi*freq*t) around an anchor at the origin.
func pendulumSamples(length, amplitude, freq, seconds float64) []model.PositionSample {
	n := int(seconds * sampleHz)
	out := make([]model.PositionSample, n)
	start := time.Unix(0, 0)
	for i := range out {
		t := float64(i) / sampleHz
		theta := amplitude * math.Sin(2*math.Pi*freq*t)
		out[i] = model.PositionSample{
			TS:  start.Add(time.Duration(float64(time.Second) * t)),
			Pos: model.Vec3{X: length * math.Sin(theta), Y: -length * math.Cos(theta)},
		}
	}
	return out
}

// circleSamples simulates arm circles of the given radius around a center,
// one revolution per period. Negative periods run clockwise.
func circleSamples(center model.Vec3, radius, period, seconds float64) []model.PositionSample {
	n := int(seconds * sampleHz)
	out := make([]model.PositionSample, n)
	start := time.Unix(0, 0)
	for i := range out {
		t := float64(i) / sampleHz
		w := 2 * math.Pi / period
		out[i] = model.PositionSample{
			TS: start.Add(time.Duration(float64(time.Second) * t)),
			Pos: center.Add(model.Vec3{
				X: radius * math.Cos(w*t),
				Y: radius * math.Sin(w*t),
			}),
		}
	}
	return out
}

func feed(ctx context.Context, d reps.Detector, samples []model.PositionSample) []*model.RepetitionEvent {
	var events []*model.RepetitionEvent
	for _, s := range samples {
		if ev := d.Offer(ctx, s); ev != nil {
			events = append(events, ev)
		}
	}
	return events
}

func TestPendulumDetector(t *testing.T) {
	ctx := context.Background()

	Convey("Given a 0.7m limb swinging a 0.5m arc at 0.5Hz for 11 seconds", t, func() {
		calc := rom.New(0.7)
		det := reps.NewPendulum(calc)
		// amplitude = arc / length, so each outbound sweep is 0.5m of arc.
		events := feed(ctx, det, pendulumSamples(0.7, 0.5/0.7, 0.5, 11))

		Convey("Then one repetition is counted per half-swing", func() {
			So(len(events), ShouldBeBetweenOrEqual, 9, 11)
		})

		Convey("Then every repetition reports close to 40.9 degrees", func() {
			for _, ev := range events {
				So(ev.ROMDegrees, ShouldBeBetween, 33, 48)
				So(ev.Strategy, ShouldEqual, reps.StrategyPendulum)
			}
		})

		Convey("Then indices are monotonic and IDs unique", func() {
			seen := map[string]bool{}
			for i, ev := range events {
				So(ev.Index, ShouldEqual, i)
				So(seen[ev.ID], ShouldBeFalse)
				seen[ev.ID] = true
			}
		})

		Convey("Then Reset clears the count", func() {
			det.Reset()
			more := feed(ctx, det, pendulumSamples(0.7, 0.5/0.7, 0.5, 3))
			So(len(more), ShouldBeGreaterThan, 0)
			So(more[0].Index, ShouldEqual, 0)
		})
	})

	Convey("Given a detector mid-swing", t, func() {
		calc := rom.New(0.7)
		det := reps.NewPendulum(calc)

		Convey("Then the in-flight ROM is zero while idle", func() {
			So(det.InFlightROM(ctx), ShouldEqual, 0)
		})

		Convey("Then the in-flight ROM tracks the open candidate", func() {
			feed(ctx, det, pendulumSamples(0.7, 0.5/0.7, 0.5, 11)[:60])
			So(det.InFlightROM(ctx), ShouldBeBetween, 20, 50)
		})
	})

	Convey("Given swings smaller than the excursion gate", t, func() {
		calc := rom.New(0.7)
		det := reps.NewPendulum(calc, reps.WithMinDistance(0.30))
		// 0.1m arc gives roughly a 0.1m chord, below the 0.30m gate.
		events := feed(ctx, det, pendulumSamples(0.7, 0.1/0.7, 0.5, 6))

		Convey("Then nothing is counted and nothing is reported", func() {
			So(events, ShouldBeEmpty)
		})
	})

	Convey("Given swings below the minimum range of motion", t, func() {
		calc := rom.New(0.7)
		det := reps.NewPendulum(calc, reps.WithMinROM(60))
		events := feed(ctx, det, pendulumSamples(0.7, 0.5/0.7, 0.5, 6))

		Convey("Then candidates reset silently", func() {
			So(events, ShouldBeEmpty)
		})
	})
}

func TestCircularDetector(t *testing.T) {
	ctx := context.Background()
	center := model.Vec3{X: 0.1, Y: -0.6, Z: 0.05}

	Convey("Given a 0.2m circle traced by a 0.7m limb, 5 revolutions", t, func() {
		calc := rom.New(0.7)
		det := reps.NewCircular(calc)
		events := feed(ctx, det, circleSamples(center, 0.2, 2.0, 10))

		Convey("Then exactly one repetition per revolution is counted", func() {
			// The warm-up mean places the centroid inside the loop before
			// accumulation starts, so revolution one is not absorbed.
			So(events, ShouldHaveLength, 5)
		})

		Convey("Then every revolution reports close to 16.6 degrees", func() {
			for _, ev := range events {
				So(ev.ROMDegrees, ShouldAlmostEqual, 16.6, 2.0)
				So(ev.Strategy, ShouldEqual, reps.StrategyCircular)
			}
		})
	})

	Convey("Given a partial circle retraced back to its start", t, func() {
		// Forward along the circle for the given seconds, then backward the
		// same way, as a single continuous trajectory.
		outAndBack := func(seconds float64) []model.PositionSample {
			n := int(2 * seconds * sampleHz)
			out := make([]model.PositionSample, n)
			start := time.Unix(0, 0)
			w := 2 * math.Pi / 2.0
			for i := range out {
				t := float64(i) / sampleHz
				phase := t
				if t > seconds {
					phase = 2*seconds - t
				}
				out[i] = model.PositionSample{
					TS: start.Add(time.Duration(float64(time.Second) * t)),
					Pos: center.Add(model.Vec3{
						X: 0.2 * math.Cos(w*phase),
						Y: 0.2 * math.Sin(w*phase),
					}),
				}
			}
			return out
		}

		calc := rom.New(0.7)
		det := reps.NewCircular(calc)
		events := feed(ctx, det, outAndBack(1.2))

		Convey("Then the reversal cancels accumulation and nothing fires", func() {
			So(events, ShouldBeEmpty)
		})
	})

	Convey("Given motion tighter than the minimum radius", t, func() {
		calc := rom.New(0.7)
		det := reps.NewCircular(calc, reps.WithMinRadius(0.05))
		events := feed(ctx, det, circleSamples(center, 0.02, 2.0, 10))

		Convey("Then no angle accumulates", func() {
			So(events, ShouldBeEmpty)
		})
	})
}

func TestLinearDetector(t *testing.T) {
	ctx := context.Background()

	// slide moves the tracker along +X at the given speed.
	slide := func(speed, seconds float64) []model.PositionSample {
		n := int(seconds * sampleHz)
		out := make([]model.PositionSample, n)
		start := time.Unix(0, 0)
		for i := range out {
			t := float64(i) / sampleHz
			out[i] = model.PositionSample{
				TS:  start.Add(time.Duration(float64(time.Second) * t)),
				Pos: model.Vec3{X: speed * t, Y: -0.7},
			}
		}
		return out
	}

	Convey("Given a steady 0.5 m/s slide with a 0.25m travel threshold", t, func() {
		calc := rom.New(0.7)
		det := reps.NewLinear(calc)
		events := feed(ctx, det, slide(0.5, 3))

		Convey("Then a repetition fires per 0.25m of travel", func() {
			So(len(events), ShouldBeBetweenOrEqual, 5, 6)
			for i, ev := range events {
				So(ev.Index, ShouldEqual, i)
				So(ev.Strategy, ShouldEqual, reps.StrategyLinear)
				So(ev.ROMDegrees, ShouldAlmostEqual, 20.5, 2.0)
			}
		})
	})

	Convey("Given a cooldown longer than the crossing interval", t, func() {
		calc := rom.New(0.7)
		det := reps.NewLinear(calc,
			reps.WithTravelDistance(0.10),
			reps.WithCooldown(time.Second),
		)
		events := feed(ctx, det, slide(0.5, 3))

		Convey("Then the cooldown suppresses double counting", func() {
			So(len(events), ShouldBeBetweenOrEqual, 2, 3)
			for i := 1; i < len(events); i++ {
				So(events[i].Timestamp.Sub(events[i-1].Timestamp), ShouldBeGreaterThanOrEqualTo, time.Second)
			}
		})
	})
}

func TestGyroAdvisory(t *testing.T) {
	ctx := context.Background()

	// swingRates simulates the gyroscope of a swing at the given frequency:
	// a 2 rad/s sinusoidal rate on the Z axis.
	swingRates := func(freq, seconds float64) []model.IMUSample {
		n := int(seconds * sampleHz)
		out := make([]model.IMUSample, n)
		start := time.Unix(0, 0)
		for i := range out {
			t := float64(i) / sampleHz
			out[i] = model.IMUSample{
				TS:   start.Add(time.Duration(float64(time.Second) * t)),
				Gyro: model.Vec3{Z: 2 * math.Sin(2*math.Pi*freq*t)},
			}
		}
		return out
	}

	Convey("Given 10 seconds of 0.5Hz sinusoidal swinging", t, func() {
		det := reps.NewGyro()

		fired := 0
		for _, s := range swingRates(0.5, 10) {
			if det.Offer(ctx, s) {
				fired++
			}
		}

		Convey("Then an advisory fires per direction change", func() {
			So(det.Reversals(), ShouldBeBetweenOrEqual, 8, 10)
			So(fired, ShouldEqual, det.Reversals())
		})

		Convey("Then Reset clears the advisory count", func() {
			det.Reset()
			So(det.Reversals(), ShouldEqual, 0)
		})
	})

	Convey("Given a clean 1Hz sine for 10 seconds", t, func() {
		det := reps.NewGyro()

		var fires []time.Time
		for _, s := range swingRates(1.0, 10) {
			if det.Offer(ctx, s) {
				fires = append(fires, s.TS)
			}
		}

		Convey("Then an advisory fires per direction change", func() {
			So(len(fires), ShouldBeBetweenOrEqual, 17, 19)
		})

		Convey("Then no two advisories fall inside the cooldown", func() {
			for i := 1; i < len(fires); i++ {
				So(fires[i].Sub(fires[i-1]), ShouldBeGreaterThanOrEqualTo, 300*time.Millisecond)
			}
		})
	})

	Convey("Given an in-progress ROM below the floor", t, func() {
		det := reps.NewGyro(reps.WithCurrentROM(func() float64 { return 2 }))

		for _, s := range swingRates(0.5, 10) {
			det.Offer(ctx, s)
		}

		Convey("Then no advisory fires", func() {
			So(det.Reversals(), ShouldEqual, 0)
		})
	})
}

func TestDetectorAuthority(t *testing.T) {
	Convey("Given the archetype detector factory", t, func() {
		calc := rom.New(0.7)

		Convey("Then each archetype maps to its authoritative strategy", func() {
			So(reps.NewDetector(model.ArchetypePendulum, calc).Strategy(), ShouldEqual, reps.StrategyPendulum)
			So(reps.NewDetector(model.ArchetypeCircular, calc).Strategy(), ShouldEqual, reps.StrategyCircular)
			So(reps.NewDetector(model.ArchetypeLinear, calc).Strategy(), ShouldEqual, reps.StrategyLinear)
		})
	})
}
