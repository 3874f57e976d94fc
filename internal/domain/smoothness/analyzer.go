// Package smoothness scores movement quality on a 0-100 scale from the
// recent trajectory window. Appending a sample is O(1); the score is only
// recomputed on the configured cadence, off the ingestion hot path.
package smoothness

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/physioflow/motion/internal/domain/buffer"
	"github.com/physioflow/motion/internal/domain/model"
	"github.com/physioflow/motion/pkg/logger"
	"github.com/physioflow/motion/pkg/metrics"
)

const minScoreSamples = 8

// Analyzer maintains the trajectory window and the smoothness timeline.
// Safe for one writer and concurrent readers.
type Analyzer struct {
	buf *buffer.Ring[model.PositionSample]

	interval  time.Duration
	dropout   time.Duration
	jerkScale float64
	dirScale  float64
	wVel      float64
	wJerk     float64
	wDir      float64
	log       logger.Logger

	lastRecompute time.Time
	current       float64
	haveScore     bool
	finalized     bool
	finalScore    float64
	timeline      []model.SmoothnessPoint
}

// New creates an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		interval:  200 * time.Millisecond,
		dropout:   500 * time.Millisecond,
		jerkScale: 0.5,
		dirScale:  120,
		wVel:      0.4,
		wJerk:     0.4,
		wDir:      0.2,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.buf == nil {
		a.buf = buffer.New(buffer.WithCapacity[model.PositionSample](defaultWindow))
	}
	return a
}

// Append adds one sample to the window. Non-finite samples are ignored.
func (a *Analyzer) Append(s model.PositionSample) {
	if !s.Pos.IsFinite() {
		return
	}
	a.buf.Append(s)
}

// Tick recomputes the score when the recompute interval has elapsed at ts.
// It reports the current score and whether a recompute ran.
func (a *Analyzer) Tick(ctx context.Context, ts time.Time) (float64, bool) {
	if a.finalized {
		return a.finalScore, false
	}
	if !a.lastRecompute.IsZero() && ts.Sub(a.lastRecompute) < a.interval {
		return a.current, false
	}
	a.recompute(ctx, ts)
	return a.current, true
}

// Current returns the most recent score, zero before the first recompute.
func (a *Analyzer) Current() float64 {
	if a.finalized {
		return a.finalScore
	}
	return a.current
}

// Timeline returns a copy of the recorded score history.
func (a *Analyzer) Timeline() []model.SmoothnessPoint {
	out := make([]model.SmoothnessPoint, len(a.timeline))
	copy(out, a.timeline)
	return out
}

// Finalize runs one last recompute and freezes the score. Further calls
// return the frozen value without touching the timeline.
func (a *Analyzer) Finalize(ctx context.Context, ts time.Time) float64 {
	if a.finalized {
		return a.finalScore
	}
	a.recompute(ctx, ts)
	a.finalScore = a.current
	a.finalized = true
	return a.finalScore
}

// Reset clears the window, timeline, and frozen state for a new session.
func (a *Analyzer) Reset() {
	a.buf.Clear()
	a.lastRecompute = time.Time{}
	a.current = 0
	a.haveScore = false
	a.finalized = false
	a.finalScore = 0
	a.timeline = nil
}

func (a *Analyzer) recompute(ctx context.Context, ts time.Time) {
	started := time.Now()
	score, ok := a.score(a.buf.Snapshot())
	metrics.RecordSmoothnessRecompute(float64(time.Since(started)) / float64(time.Millisecond))

	a.lastRecompute = ts
	if !ok {
		// Not enough contiguous motion yet. Hold the previous score rather
		// than flashing zero at the user.
		if !a.haveScore {
			a.log.Debug(ctx, "smoothness window too short, score withheld")
		}
		return
	}
	a.current = score
	a.haveScore = true
	a.timeline = append(a.timeline, model.SmoothnessPoint{Timestamp: ts, Score: score})
}

// score computes the composite smoothness over the window: velocity
// consistency, jerk magnitude, and direction consistency, each mapped to
// 0-100 and combined by weight. Pairs spanning a dropout gap are discarded.
func (a *Analyzer) score(samples []model.PositionSample) (float64, bool) {
	if len(samples) < minScoreSamples {
		return 0, false
	}

	type velSample struct {
		t time.Time
		v model.Vec3
	}
	vels := make([]velSample, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		gap := samples[i].TS.Sub(samples[i-1].TS)
		if gap <= 0 || gap > a.dropout {
			continue
		}
		dt := gap.Seconds()
		vels = append(vels, velSample{
			t: samples[i].TS,
			v: samples[i].Pos.Sub(samples[i-1].Pos).Scale(1 / dt),
		})
	}
	if len(vels) < minScoreSamples-1 {
		return 0, false
	}

	speeds := make([]float64, len(vels))
	for i, vs := range vels {
		speeds[i] = vs.v.Norm()
	}
	mean, std := stat.MeanStdDev(speeds, nil)

	velScore := 0.0
	if mean > 0 {
		cv := std / mean
		velScore = 100 * math.Max(0, 1-cv)
	}

	// Accelerations and jerks over gap-free velocity pairs.
	type accSample struct {
		t time.Time
		a model.Vec3
	}
	accs := make([]accSample, 0, len(vels)-1)
	var dirAngles []float64
	for i := 1; i < len(vels); i++ {
		gap := vels[i].t.Sub(vels[i-1].t)
		if gap <= 0 || gap > a.dropout {
			continue
		}
		dt := gap.Seconds()
		accs = append(accs, accSample{
			t: vels[i].t,
			a: vels[i].v.Sub(vels[i-1].v).Scale(1 / dt),
		})
		if ang, ok := angleBetween(vels[i-1].v, vels[i].v); ok {
			dirAngles = append(dirAngles, ang)
		}
	}

	var jerkSum float64
	var jerkN int
	for i := 1; i < len(accs); i++ {
		gap := accs[i].t.Sub(accs[i-1].t)
		if gap <= 0 || gap > a.dropout {
			continue
		}
		jerkSum += accs[i].a.Sub(accs[i-1].a).Scale(1 / gap.Seconds()).Norm()
		jerkN++
	}
	jerkScore := 0.0
	if jerkN > 0 {
		jerkScore = math.Max(0, 100-a.jerkScale*jerkSum/float64(jerkN))
	}

	dirScore := 0.0
	if len(dirAngles) > 0 {
		dirScore = math.Max(0, 100-a.dirScale*stat.Mean(dirAngles, nil))
	}

	composite := a.wVel*velScore + a.wJerk*jerkScore + a.wDir*dirScore

	// Perceptual remap: compress the top of the range so small improvements
	// near 100 stay visible to the user.
	return math.Pow(composite/100, 0.8) * 100, true
}

// angleBetween returns the angle in radians between two velocity vectors,
// or false when either is too slow to carry a direction.
func angleBetween(u, v model.Vec3) (float64, bool) {
	const minSpeed = 1e-3
	nu, nv := u.Norm(), v.Norm()
	if nu < minSpeed || nv < minSpeed {
		return 0, false
	}
	cos := u.Dot(v) / (nu * nv)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos), true
}
