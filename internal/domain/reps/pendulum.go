package reps

import (
	"context"

	"github.com/physioflow/motion/internal/domain/gate"
	"github.com/physioflow/motion/internal/domain/model"
	"github.com/physioflow/motion/pkg/logger"
)

// Velocity EMA coefficient. Heavier smoothing would delay reversal
// detection past the swing extreme.
const velocityAlpha = 0.3

// Pendulum detects swing-and-return repetitions: motion out from an anchor,
// a velocity reversal at the extreme, and a return toward the anchor. A
// candidate that fails the excursion, cooldown, or minimum-ROM gate resets
// silently so tracker noise never surfaces as a phantom repetition.
type Pendulum struct {
	s    settings
	calc ROMCalculator

	motion   *gate.Hysteresis
	cooldown *gate.Cooldown
	seg      *model.TrajectorySegment

	st           phase
	anchor       model.Vec3
	maxExcursion float64
	outboundLen  int

	vel      model.Vec3
	lastDir  model.Vec3
	prev     model.PositionSample
	havePrev bool

	index int
}

// NewPendulum creates the pendulum-archetype detector.
func NewPendulum(calc ROMCalculator, opts ...Option) *Pendulum {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return &Pendulum{
		s:        s,
		calc:     calc,
		motion:   gate.NewHysteresis(s.speedOn, s.speedOff),
		cooldown: gate.NewCooldown(s.cooldown),
		seg:      model.NewTrajectorySegment(s.segmentMax),
	}
}

func (d *Pendulum) Strategy() string { return StrategyPendulum }

// Reset clears all detection state for a new session.
func (d *Pendulum) Reset() {
	d.motion.Reset()
	d.cooldown.Reset()
	d.seg.Reset()
	d.st = phaseIdle
	d.anchor = model.Vec3{}
	d.maxExcursion = 0
	d.outboundLen = 0
	d.vel = model.Vec3{}
	d.lastDir = model.Vec3{}
	d.havePrev = false
	d.index = 0
}

// Offer feeds one position sample.
func (d *Pendulum) Offer(ctx context.Context, s model.PositionSample) *model.RepetitionEvent {
	if !s.Pos.IsFinite() {
		return nil
	}
	if !d.havePrev {
		d.prev = s
		d.havePrev = true
		return nil
	}
	dt := s.TS.Sub(d.prev.TS).Seconds()
	if dt <= 0 {
		return nil
	}

	inst := s.Pos.Sub(d.prev.Pos).Scale(1 / dt)
	d.prev = s
	d.vel = d.vel.Scale(1 - velocityAlpha).Add(inst.Scale(velocityAlpha))
	speed := d.vel.Norm()
	d.motion.Observe(speed)

	if d.st == phaseIdle {
		if d.motion.Active() {
			d.begin(s)
		}
		return nil
	}

	d.seg.Append(s)
	if dist := s.Pos.DistanceTo(d.anchor); dist > d.maxExcursion {
		d.maxExcursion = dist
	}

	// Direction is only trusted above the stop threshold; the held value
	// bridges the near-zero-speed dwell at the swing extreme.
	reversed := false
	if speed >= d.s.speedOff {
		dir := d.vel.Scale(1 / speed)
		if d.lastDir != (model.Vec3{}) && dir.Dot(d.lastDir) < 0 {
			reversed = true
		}
		d.lastDir = dir
	}

	switch d.st {
	case phaseBuilding:
		if reversed {
			if d.maxExcursion >= d.s.minDistanceM {
				d.st = phaseReturning
				d.outboundLen = d.seg.Len()
			} else {
				d.begin(s)
			}
		}
	case phaseReturning:
		nearAnchor := s.Pos.DistanceTo(d.anchor) <= d.s.minDistanceM/2
		if reversed || nearAnchor {
			return d.complete(ctx, s)
		}
	}
	return nil
}

// InFlightROM reports the ROM of the open candidate, scored over its
// outbound portion so the return path cannot inflate the live readout.
func (d *Pendulum) InFlightROM(ctx context.Context) float64 {
	if d.st == phaseIdle || d.seg.Len() < 2 {
		return 0
	}
	snapshot := d.seg.Snapshot()
	if d.st == phaseReturning && d.outboundLen > 0 && d.outboundLen < len(snapshot) {
		snapshot = snapshot[:d.outboundLen]
	}
	return d.calc.ArcROM(ctx, snapshot)
}

// begin anchors a fresh repetition at the current sample.
func (d *Pendulum) begin(s model.PositionSample) {
	d.seg.Reset()
	d.seg.Append(s)
	d.anchor = s.Pos
	d.maxExcursion = 0
	d.outboundLen = 0
	d.st = phaseBuilding
}

// complete closes the candidate at sample s. ROM is computed over the
// outbound half only, so the return path does not double the angle.
func (d *Pendulum) complete(ctx context.Context, s model.PositionSample) *model.RepetitionEvent {
	snapshot := d.seg.Snapshot()
	outbound := snapshot
	if d.outboundLen > 0 && d.outboundLen < len(snapshot) {
		outbound = snapshot[:d.outboundLen]
	}
	romDeg := d.calc.ArcROM(ctx, outbound)

	var ev *model.RepetitionEvent
	switch {
	case romDeg < d.s.minROMDeg:
		d.s.log.Debug(ctx, "repetition rejected below minimum range of motion",
			logger.Float64("rom_deg", romDeg))
	case !d.cooldown.TryFire(s.TS):
		d.s.log.Debug(ctx, "repetition rejected by cooldown")
	default:
		ev = emit(d.index, romDeg, s.TS, StrategyPendulum, snapshot)
		d.index++
	}

	d.begin(s)
	return ev
}
