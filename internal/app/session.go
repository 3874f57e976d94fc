// Package app wires the domain components into a motion-analysis session:
// queue-fed single-worker dispatch, the authoritative repetition detector for
// the chosen archetype, the advisory gyro path, smoothness scoring, and the
// end-of-session summary.
package app

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/physioflow/motion/internal/adapters/eventlog"
	"github.com/physioflow/motion/internal/adapters/stream"
	"github.com/physioflow/motion/internal/config"
	"github.com/physioflow/motion/internal/domain/filter"
	"github.com/physioflow/motion/internal/domain/model"
	"github.com/physioflow/motion/internal/domain/reps"
	"github.com/physioflow/motion/internal/domain/rom"
	"github.com/physioflow/motion/internal/domain/smoothness"
	"github.com/physioflow/motion/pkg/logger"
	"github.com/physioflow/motion/pkg/metrics"
)

// Callbacks are invoked from the single dispatch goroutine, so they run in
// sample order and must not block.
type Callbacks struct {
	// OnRepetition fires exactly once per counted repetition.
	OnRepetition func(model.RepetitionEvent)

	// OnROMUpdate fires on the recompute cadence with the ROM of the
	// repetition in progress. It falls back toward zero between repetitions.
	OnROMUpdate func(float64)

	// OnSmoothness fires when a smoothness recompute publishes a score.
	OnSmoothness func(model.SmoothnessPoint)

	// OnAdvisoryReversal fires when the gyro path reports a reversal. It is
	// feedback only and never changes the repetition count.
	OnAdvisoryReversal func(time.Time)
}

// Session is one exercise session. Construct with New, then Start, feed
// samples through the Offer methods, and close with EndSession.
type Session struct {
	mu  sync.RWMutex
	cfg *config.Config
	log logger.Logger

	id        string
	archetype model.Archetype
	callbacks Callbacks

	profile    model.CalibrationProfile
	hasProfile bool

	queue    *stream.Queue
	worker   *stream.Worker
	events   *eventlog.Store
	calc     *rom.Calculator
	detector reps.Detector
	gyro     *reps.Gyro
	smooth   *smoothness.Analyzer

	// Worker-owned state: touched only from the dispatch goroutine.
	jointAngle  *filter.Kalman
	lastTS      time.Time
	lastJointTS time.Time

	liveROMBits atomic.Uint64

	started   bool
	ended     bool
	startedAt time.Time
	summary   model.SessionSummary
}

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithCallbacks sets the event callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(s *Session) { s.callbacks = cb }
}

// WithCalibrationProfile installs a measured calibration profile. Invalid
// profiles are ignored and the configured default segment length is used.
func WithCalibrationProfile(p model.CalibrationProfile) Option {
	return func(s *Session) {
		if p.Valid && p.SegmentLengthM > 0 {
			s.profile = p
			s.hasProfile = true
		}
	}
}

// New creates a Session from configuration.
func New(cfg *config.Config, opts ...Option) *Session {
	s := &Session{
		cfg: cfg,
		log: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetCalibrationProfile replaces the profile before Start. Invalid profiles
// are rejected.
func (s *Session) SetCalibrationProfile(p model.CalibrationProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrSessionStarted
	}
	if !p.Valid || p.SegmentLengthM <= 0 {
		return ErrInvalidProfile
	}
	s.profile = p
	s.hasProfile = true
	return nil
}

// CalibrationProfile returns the installed profile, if any.
func (s *Session) CalibrationProfile() (model.CalibrationProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile, s.hasProfile
}

// ID returns the session identifier, empty before Start.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Start builds the pipeline for the archetype and begins dispatch.
// Idempotent: a second call is a no-op.
func (s *Session) Start(ctx context.Context, archetype model.Archetype) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if !archetype.Valid() {
		return ErrUnknownArchetype
	}

	length := s.cfg.Calibration.DefaultSegmentLengthM
	if s.hasProfile {
		length = s.profile.SegmentLengthM
	}

	s.id = uuid.NewString()
	s.archetype = archetype
	s.startedAt = time.Now()

	s.calc = rom.New(length,
		rom.WithPlaneHysteresis(s.cfg.ROM.PlaneHysteresisFrames),
		rom.WithMedianWindow(s.cfg.ROM.MedianWindow),
		rom.WithNoiseFloor(s.cfg.ROM.NoiseFloorM),
		rom.WithClampMax(s.cfg.ROM.ClampMaxDeg),
		rom.WithAngleOffset(s.cfg.ROM.AngleOffsetDeg),
		rom.WithLogger(s.log),
	)

	dc := s.cfg.ByArchetype(string(archetype))
	s.detector = reps.NewDetector(archetype, s.calc,
		reps.WithCooldown(time.Duration(dc.CooldownMS)*time.Millisecond),
		reps.WithMinROM(dc.MinROMDeg),
		reps.WithMinDistance(dc.MinDistanceM),
		reps.WithReversalSpeeds(dc.ReversalSpeedOn, dc.ReversalSpeedOff),
		reps.WithMinRadius(dc.MinRadiusM),
		reps.WithCentroidAlpha(dc.CentroidAlpha),
		reps.WithCentroidWarmup(dc.CentroidWarmupSamples),
		reps.WithMaxStepAngle(dc.MaxStepAngleRad),
		reps.WithTravelDistance(dc.TravelDistanceM),
		reps.WithSegmentCapacity(s.cfg.SegmentMaxSamples),
		reps.WithLogger(s.log),
	)

	s.gyro = reps.NewGyro(
		reps.WithGyroNoise(s.cfg.Gyro.ProcessNoise, s.cfg.Gyro.MeasurementNoise),
		reps.WithGyroCooldown(time.Duration(s.cfg.Gyro.CooldownMS)*time.Millisecond),
		reps.WithRateHysteresis(s.cfg.Gyro.RateHysteresisOn, s.cfg.Gyro.RateHysteresisOff),
		reps.WithGyroMinROM(s.cfg.Gyro.MinROMDeg),
		reps.WithCurrentROM(s.CurrentROM),
	)

	s.smooth = smoothness.New(
		smoothness.WithWindow(s.cfg.TelemetryBufferSize),
		smoothness.WithRecomputeInterval(time.Duration(s.cfg.Smoothness.RecomputeIntervalMS)*time.Millisecond),
		smoothness.WithDropoutThreshold(time.Duration(s.cfg.Smoothness.DropoutThresholdMS)*time.Millisecond),
		smoothness.WithJerkScale(s.cfg.Smoothness.JerkScale),
		smoothness.WithDirectionScale(s.cfg.Smoothness.DirectionScale),
		smoothness.WithWeights(
			s.cfg.Smoothness.VelocityWeight,
			s.cfg.Smoothness.JerkWeight,
			s.cfg.Smoothness.DirectionWeight,
		),
		smoothness.WithLogger(s.log),
	)

	s.jointAngle = filter.New()
	s.events = eventlog.New()
	s.queue = stream.NewQueue(stream.WithQueueCapacity(s.cfg.IngestQueueSize))
	s.worker = stream.NewWorker(s.queue, stream.ProcessorFunc(s.process),
		stream.WithWorkerLogger(s.log))
	s.worker.Start(ctx)

	s.started = true
	metrics.RecordSessionStart()
	s.log.Info(ctx, "session started",
		logger.String("session_id", s.id),
		logger.String("archetype", string(archetype)),
		logger.Float64("segment_length_m", length),
	)
	return nil
}

// OfferPosition enqueues one tracker position. Reports false when the
// session is not running or the queue sheds the frame.
func (s *Session) OfferPosition(ctx context.Context, p model.PositionSample) bool {
	q := s.runningQueue()
	if q == nil {
		return false
	}
	return q.Offer(ctx, stream.Frame{Position: &p})
}

// OfferIMU enqueues one inertial sample for the advisory path.
func (s *Session) OfferIMU(ctx context.Context, imu model.IMUSample) bool {
	q := s.runningQueue()
	if q == nil {
		return false
	}
	return q.Offer(ctx, stream.Frame{IMU: &imu})
}

// OfferJoints enqueues one camera keypoint triple.
func (s *Session) OfferJoints(ctx context.Context, j model.JointTriple) bool {
	q := s.runningQueue()
	if q == nil {
		return false
	}
	return q.Offer(ctx, stream.Frame{Joints: &j})
}

func (s *Session) runningQueue() *stream.Queue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started || s.ended {
		return nil
	}
	return s.queue
}

// CurrentROM returns the in-progress ROM estimate in degrees.
func (s *Session) CurrentROM() float64 {
	return math.Float64frombits(s.liveROMBits.Load())
}

// Repetitions returns the number of counted repetitions so far.
func (s *Session) Repetitions() int {
	s.mu.RLock()
	ev := s.events
	s.mu.RUnlock()
	if ev == nil {
		return 0
	}
	return ev.Len()
}

// Stop halts intake and drains the worker. The in-flight repetition segment
// is discarded, never emitted. Idempotent.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started || s.ended {
		s.mu.Unlock()
		return nil
	}
	worker := s.worker
	s.mu.Unlock()

	return worker.Stop(ctx)
}

// EndSession stops the pipeline and returns the summary. Idempotent: later
// calls return the same summary.
func (s *Session) EndSession(ctx context.Context) (model.SessionSummary, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return model.SessionSummary{}, ErrSessionNotStarted
	}
	if s.ended {
		summary := s.summary
		s.mu.Unlock()
		return summary, nil
	}
	worker := s.worker
	s.mu.Unlock()

	if err := worker.Stop(ctx); err != nil {
		return model.SessionSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	endTS := s.lastTS
	if endTS.IsZero() {
		endTS = time.Now()
	}
	final := s.smooth.Finalize(ctx, endTS)

	roms := s.events.ROMs()
	var avg, maxROM float64
	if len(roms) > 0 {
		avg = stat.Mean(roms, nil)
		for _, r := range roms {
			if r > maxROM {
				maxROM = r
			}
		}
	}

	s.summary = model.SessionSummary{
		SessionID:          s.id,
		Archetype:          s.archetype,
		Repetitions:        len(roms),
		AvgROMDegrees:      avg,
		MaxROMDegrees:      maxROM,
		PerRepROMDegrees:   roms,
		FinalSmoothness:    final,
		SmoothnessTimeline: s.smooth.Timeline(),
		StartedAt:          s.startedAt,
		EndedAt:            time.Now(),
	}
	s.ended = true
	metrics.RecordSessionEnd()
	s.log.Info(ctx, "session ended",
		logger.String("session_id", s.id),
		logger.Int("repetitions", len(roms)),
		logger.Float64("avg_rom_deg", avg),
		logger.Float64("final_smoothness", final),
	)
	return s.summary, nil
}

// process handles one frame on the dispatch goroutine.
func (s *Session) process(ctx context.Context, f stream.Frame) {
	switch {
	case f.Position != nil:
		s.onPosition(ctx, *f.Position)
	case f.IMU != nil:
		s.onIMU(ctx, *f.IMU)
	case f.Joints != nil:
		s.onJoints(ctx, *f.Joints)
	}
}

func (s *Session) onPosition(ctx context.Context, p model.PositionSample) {
	if !p.Pos.IsFinite() {
		metrics.RecordSampleDropped("nonfinite")
		return
	}
	if !s.lastTS.IsZero() && !p.TS.After(s.lastTS) {
		metrics.RecordSampleDropped("stale_timestamp")
		return
	}
	s.lastTS = p.TS

	s.smooth.Append(p)

	if ev := s.detector.Offer(ctx, p); ev != nil {
		if err := s.events.Append(*ev); err != nil {
			s.log.Warn(ctx, "repetition event dropped", logger.Error(err))
		}
		if s.callbacks.OnRepetition != nil {
			s.callbacks.OnRepetition(*ev)
		}
	}

	if score, recomputed := s.smooth.Tick(ctx, p.TS); recomputed {
		s.updateLiveROM(ctx)
		if s.callbacks.OnSmoothness != nil {
			s.callbacks.OnSmoothness(model.SmoothnessPoint{Timestamp: p.TS, Score: score})
		}
	}
}

func (s *Session) onIMU(ctx context.Context, imu model.IMUSample) {
	if !imu.Gyro.IsFinite() || !imu.Accel.IsFinite() {
		metrics.RecordSampleDropped("nonfinite")
		return
	}
	if s.gyro.Offer(ctx, imu) && s.callbacks.OnAdvisoryReversal != nil {
		s.callbacks.OnAdvisoryReversal(imu.TS)
	}
}

// onJoints runs the camera path: the joint angle is measured directly from
// the keypoint triple and Kalman-smoothed against frame jitter.
func (s *Session) onJoints(ctx context.Context, j model.JointTriple) {
	if j.Proximal.Confidence < minKeypointConfidence ||
		j.Vertex.Confidence < minKeypointConfidence ||
		j.Distal.Confidence < minKeypointConfidence {
		metrics.RecordSampleDropped("low_confidence")
		return
	}
	dt := 0.01
	if !s.lastJointTS.IsZero() {
		dt = j.TS.Sub(s.lastJointTS).Seconds()
		if dt <= 0 {
			metrics.RecordSampleDropped("stale_timestamp")
			return
		}
	}
	s.lastJointTS = j.TS

	st := s.jointAngle.Update(j.AngleDeg(), dt)
	s.liveROMBits.Store(math.Float64bits(st.Value))
	if s.callbacks.OnROMUpdate != nil {
		s.callbacks.OnROMUpdate(st.Value)
	}
}

// minKeypointConfidence rejects camera frames where pose estimation lost
// the joint.
const minKeypointConfidence = 0.3

// updateLiveROM publishes the authoritative detector's in-flight ROM on the
// recompute cadence. It resets toward zero between repetitions, and it is
// the floor the advisory gyro path checks before confirming a reversal.
func (s *Session) updateLiveROM(ctx context.Context) {
	deg := s.detector.InFlightROM(ctx)
	s.liveROMBits.Store(math.Float64bits(deg))
	if s.callbacks.OnROMUpdate != nil {
		s.callbacks.OnROMUpdate(deg)
	}
}
