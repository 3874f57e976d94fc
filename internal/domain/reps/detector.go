// Package reps detects completed exercise repetitions from motion streams.
//
// Each exercise archetype has exactly one authoritative detector, selected at
// session start. The gyro detector is advisory only: it reports reversals for
// low-latency feedback but never contributes to the repetition count.
package reps

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/physioflow/motion/internal/domain/model"
	"github.com/physioflow/motion/pkg/metrics"
)

// Strategy names carried on emitted events and metrics labels.
const (
	StrategyPendulum = "pendulum"
	StrategyCircular = "circular"
	StrategyLinear   = "linear"
	StrategyGyro     = "gyro_advisory"
)

// Detection phases shared by the position-based detectors.
type phase int

const (
	phaseIdle phase = iota
	phaseBuilding
	phaseReturning
)

// Detector consumes position samples and emits at most one completed
// repetition per sample. Implementations are not safe for concurrent use;
// the session worker owns a single instance.
type Detector interface {
	// Offer feeds one sample. A non-nil event means a repetition completed
	// at this sample.
	Offer(ctx context.Context, s model.PositionSample) *model.RepetitionEvent

	// InFlightROM estimates the range of motion, in degrees, of the
	// repetition in progress. Zero when no candidate is open.
	InFlightROM(ctx context.Context) float64

	// Strategy identifies the detector on events and metrics.
	Strategy() string

	// Reset clears all detection state for a new session.
	Reset()
}

// ROMCalculator converts a trajectory segment into a range-of-motion angle.
// Satisfied by the rom package's Calculator.
type ROMCalculator interface {
	ArcROM(ctx context.Context, samples []model.PositionSample) float64
	CircularROM(ctx context.Context, samples []model.PositionSample) float64
}

// NewDetector returns the authoritative detector for the archetype.
func NewDetector(a model.Archetype, calc ROMCalculator, opts ...Option) Detector {
	switch a {
	case model.ArchetypeCircular:
		return NewCircular(calc, opts...)
	case model.ArchetypeLinear:
		return NewLinear(calc, opts...)
	default:
		return NewPendulum(calc, opts...)
	}
}

// emit builds the event and records it. index is the zero-based count of
// previously completed repetitions.
func emit(index int, romDeg float64, ts time.Time, strategy string, segment []model.PositionSample) *model.RepetitionEvent {
	metrics.RecordRepetition(strategy)
	metrics.ObserveROM(romDeg)
	return &model.RepetitionEvent{
		ID:         uuid.NewString(),
		Index:      index,
		ROMDegrees: romDeg,
		Timestamp:  ts,
		Strategy:   strategy,
		Segment:    segment,
	}
}
