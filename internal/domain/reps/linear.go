package reps

import (
	"context"
	"time"

	"github.com/physioflow/motion/internal/domain/gate"
	"github.com/physioflow/motion/internal/domain/model"
	"github.com/physioflow/motion/pkg/logger"
)

// Linear detects one-way reach repetitions: a repetition completes when the
// tracker has travelled the configured distance from its anchor, and the
// anchor then re-seats at the current position.
type Linear struct {
	s    settings
	calc ROMCalculator

	cooldown *gate.Cooldown
	seg      *model.TrajectorySegment

	anchor     model.Vec3
	haveAnchor bool

	index int
}

// NewLinear creates the linear-archetype detector.
func NewLinear(calc ROMCalculator, opts ...Option) *Linear {
	s := defaultSettings()
	s.cooldown = 300 * time.Millisecond
	s.minROMDeg = 0
	for _, opt := range opts {
		opt(&s)
	}
	return &Linear{
		s:        s,
		calc:     calc,
		cooldown: gate.NewCooldown(s.cooldown),
		seg:      model.NewTrajectorySegment(s.segmentMax),
	}
}

func (d *Linear) Strategy() string { return StrategyLinear }

// Reset clears all detection state for a new session.
func (d *Linear) Reset() {
	d.cooldown.Reset()
	d.seg.Reset()
	d.anchor = model.Vec3{}
	d.haveAnchor = false
	d.index = 0
}

// Offer feeds one position sample.
func (d *Linear) Offer(ctx context.Context, s model.PositionSample) *model.RepetitionEvent {
	if !s.Pos.IsFinite() {
		return nil
	}
	if !d.haveAnchor {
		d.reanchor(s)
		return nil
	}

	d.seg.Append(s)
	if s.Pos.DistanceTo(d.anchor) < d.s.travelDistanceM {
		return nil
	}

	snapshot := d.seg.Snapshot()
	romDeg := d.calc.ArcROM(ctx, snapshot)
	d.reanchor(s)

	switch {
	case romDeg < d.s.minROMDeg:
		d.s.log.Debug(ctx, "reach rejected below minimum range of motion",
			logger.Float64("rom_deg", romDeg))
		return nil
	case !d.cooldown.TryFire(s.TS):
		d.s.log.Debug(ctx, "reach rejected by cooldown")
		return nil
	}

	ev := emit(d.index, romDeg, s.TS, StrategyLinear, snapshot)
	d.index++
	return ev
}

// InFlightROM reports the ROM of the travel since the last anchor.
func (d *Linear) InFlightROM(ctx context.Context) float64 {
	if d.seg.Len() < 2 {
		return 0
	}
	return d.calc.ArcROM(ctx, d.seg.Snapshot())
}

func (d *Linear) reanchor(s model.PositionSample) {
	d.anchor = s.Pos
	d.haveAnchor = true
	d.seg.Reset()
	d.seg.Append(s)
}
