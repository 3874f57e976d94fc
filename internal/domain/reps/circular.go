package reps

import (
	"context"
	"math"
	"time"

	"github.com/physioflow/motion/internal/domain/gate"
	"github.com/physioflow/motion/internal/domain/model"
	"github.com/physioflow/motion/pkg/logger"
)

// Plane-normal EMA coefficient. The normal orients the sign of each angle
// step, so it must track slow plane drift without flipping on noise.
const normalAlpha = 0.1

// Circular detects full revolutions by accumulating the signed angle swept
// around an exponentially tracked centroid. The accumulator wraps at ±2π,
// so direction changes mid-circle cancel rather than double-count.
type Circular struct {
	s    settings
	calc ROMCalculator

	cooldown *gate.Cooldown
	seg      *model.TrajectorySegment

	warmup       []model.Vec3
	warmSum      model.Vec3
	centroid     model.Vec3
	haveCentroid bool
	normal       model.Vec3
	prevRadial   model.Vec3
	haveRadial   bool
	accum        float64

	index int
}

// NewCircular creates the circular-archetype detector.
func NewCircular(calc ROMCalculator, opts ...Option) *Circular {
	s := defaultSettings()
	s.cooldown = 500 * time.Millisecond
	s.minROMDeg = 5
	for _, opt := range opts {
		opt(&s)
	}
	return &Circular{
		s:        s,
		calc:     calc,
		cooldown: gate.NewCooldown(s.cooldown),
		seg:      model.NewTrajectorySegment(s.segmentMax),
	}
}

func (d *Circular) Strategy() string { return StrategyCircular }

// Reset clears all detection state for a new session.
func (d *Circular) Reset() {
	d.cooldown.Reset()
	d.seg.Reset()
	d.warmup = nil
	d.warmSum = model.Vec3{}
	d.centroid = model.Vec3{}
	d.haveCentroid = false
	d.normal = model.Vec3{}
	d.prevRadial = model.Vec3{}
	d.haveRadial = false
	d.accum = 0
	d.index = 0
}

// Offer feeds one position sample.
func (d *Circular) Offer(ctx context.Context, s model.PositionSample) *model.RepetitionEvent {
	if !s.Pos.IsFinite() {
		return nil
	}

	if !d.haveCentroid {
		d.seg.Append(s)
		d.warmSum = d.warmSum.Add(s.Pos)
		d.warmup = append(d.warmup, s.Pos)
		if len(d.warmup) < d.s.warmupSamples {
			return nil
		}
		// The warm-up mean sits inside the traced loop, and the winding
		// around any interior point is a full 2π per revolution. Replaying
		// the buffered radials against it recovers the angle swept while the
		// centroid was still unknown; seeding from the first sample instead
		// would put the centroid on the rim and lose most of revolution one.
		d.centroid = d.warmSum.Scale(1 / float64(len(d.warmup)))
		d.haveCentroid = true
		for _, p := range d.warmup {
			d.advance(p)
		}
		d.warmup = nil
		if math.Abs(d.accum) >= 2*math.Pi {
			return d.complete(ctx, s)
		}
		return nil
	}

	d.centroid = d.centroid.Scale(1 - d.s.centroidAlpha).Add(s.Pos.Scale(d.s.centroidAlpha))
	if !d.advance(s.Pos) {
		return nil
	}
	d.seg.Append(s)

	if math.Abs(d.accum) < 2*math.Pi {
		return nil
	}
	return d.complete(ctx, s)
}

// advance folds one position into the signed angle accumulator. It reports
// false when the point is too close to the centroid to resolve an angle, in
// which case the previous radial is dropped so a huge step is not
// synthesized on the way back out.
func (d *Circular) advance(p model.Vec3) bool {
	radial := p.Sub(d.centroid)
	if radial.Norm() < d.s.minRadiusM {
		d.haveRadial = false
		return false
	}
	if !d.haveRadial {
		d.prevRadial = radial
		d.haveRadial = true
		return true
	}

	cross := d.prevRadial.Cross(radial)
	step := math.Atan2(cross.Norm(), d.prevRadial.Dot(radial))
	d.prevRadial = radial

	// Orient the step against the tracked rotation-plane normal.
	if n := cross.Normalize(); n != (model.Vec3{}) {
		if d.normal == (model.Vec3{}) {
			d.normal = n
		} else {
			d.normal = d.normal.Scale(1 - normalAlpha).Add(n.Scale(normalAlpha)).Normalize()
		}
	}
	if cross.Dot(d.normal) < 0 {
		step = -step
	}
	if step > d.s.maxStepAngleRad {
		step = d.s.maxStepAngleRad
	} else if step < -d.s.maxStepAngleRad {
		step = -d.s.maxStepAngleRad
	}

	d.accum += step
	return true
}

// InFlightROM reports the ROM estimate of the revolution in progress.
func (d *Circular) InFlightROM(ctx context.Context) float64 {
	if d.seg.Len() < 2 {
		return 0
	}
	return d.calc.CircularROM(ctx, d.seg.Snapshot())
}

// complete closes one full revolution.
func (d *Circular) complete(ctx context.Context, s model.PositionSample) *model.RepetitionEvent {
	if d.accum > 0 {
		d.accum -= 2 * math.Pi
	} else {
		d.accum += 2 * math.Pi
	}

	snapshot := d.seg.Snapshot()
	d.seg.Reset()
	romDeg := d.calc.CircularROM(ctx, snapshot)

	switch {
	case romDeg < d.s.minROMDeg:
		d.s.log.Debug(ctx, "revolution rejected below minimum range of motion",
			logger.Float64("rom_deg", romDeg))
		return nil
	case !d.cooldown.TryFire(s.TS):
		d.s.log.Debug(ctx, "revolution rejected by cooldown")
		return nil
	}

	ev := emit(d.index, romDeg, s.TS, StrategyCircular, snapshot)
	d.index++
	return ev
}
