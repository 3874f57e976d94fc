// Package calibration estimates a body-segment length and rotation anchor
// from multi-posture tracker captures.
//
// The anchor (e.g. a shoulder) is triangulated from the folded and extended
// posture positions: it lies on the perpendicular bisector of the
// folded↔extended chord, offset by sqrt(L² − (chord/2)²) for segment
// length L. A profile is validated by recomputing anchor-to-posture
// distances; their spread is the published calibration-quality metric.
package calibration

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/physioflow/motion/internal/domain/model"
	"github.com/physioflow/motion/pkg/metrics"
)

// Posture identifies one defined capture pose.
type Posture string

const (
	PostureFolded   Posture = "folded"
	PostureExtended Posture = "extended"
	PostureMid      Posture = "mid" // optional intermediate pose
)

// Estimator accumulates posture captures and produces a CalibrationProfile.
// Not safe for concurrent use; the calibration flow is sequential.
type Estimator struct {
	segmentLength    float64
	scatterThreshold float64
	minSubSamples    int
	maxAttempts      int
	maxAnchorStdDev  float64

	captures map[Posture]model.Vec3
	attempts map[Posture]int
	now      func() time.Time
}

// New creates an estimator for the given measured (or assumed) segment
// length in metres.
func New(segmentLength float64, opts ...Option) *Estimator {
	e := &Estimator{
		segmentLength:    segmentLength,
		scatterThreshold: 0.06,
		minSubSamples:    5,
		maxAttempts:      3,
		maxAnchorStdDev:  0.05,
		captures:         make(map[Posture]model.Vec3),
		attempts:         make(map[Posture]int),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SubmitCapture offers one posture's stability-gated sub-samples. The set is
// accepted only when every sub-sample lies within the scatter threshold of
// the set centroid; a rejected set consumes one recapture attempt.
func (e *Estimator) SubmitCapture(posture Posture, samples []model.Vec3) error {
	metrics.RecordCalibrationAttempt()
	if len(samples) < e.minSubSamples {
		return ErrInsufficientSamples
	}
	for _, s := range samples {
		if !s.IsFinite() {
			return ErrInsufficientSamples
		}
	}

	centroid := centroidOf(samples)
	var maxDist float64
	for _, s := range samples {
		if d := s.DistanceTo(centroid); d > maxDist {
			maxDist = d
		}
	}

	if maxDist > e.scatterThreshold {
		e.attempts[posture]++
		if e.attempts[posture] >= e.maxAttempts {
			metrics.RecordCalibrationFailure()
			return ErrCalibrationFailed
		}
		return ErrUnstableCapture
	}

	e.captures[posture] = centroid
	return nil
}

// Attempts reports how many rejected captures the posture has consumed.
func (e *Estimator) Attempts(posture Posture) int { return e.attempts[posture] }

// Estimate triangulates the anchor from the accepted captures and returns
// the profile. The folded and extended postures are required; the mid
// posture, when present, disambiguates the bisector direction and tightens
// validation.
func (e *Estimator) Estimate() (model.CalibrationProfile, error) {
	if e.segmentLength <= 0 {
		return model.CalibrationProfile{}, ErrInvalidSegmentLength
	}
	folded, okF := e.captures[PostureFolded]
	extended, okE := e.captures[PostureExtended]
	if !okF || !okE {
		return model.CalibrationProfile{}, ErrMissingPosture
	}

	chordVec := extended.Sub(folded)
	chord := chordVec.Norm()
	if chord < 1e-6 {
		return model.CalibrationProfile{}, ErrDegenerateCaptures
	}
	half := chord / 2
	if half >= e.segmentLength {
		// Postures further apart than the limb allows: either the length
		// is wrong or the captures are.
		return model.CalibrationProfile{}, ErrDegenerateCaptures
	}
	offset := math.Sqrt(e.segmentLength*e.segmentLength - half*half)

	mid := folded.Add(extended).Scale(0.5)
	u := chordVec.Scale(1 / chord)

	// Bisector direction: project the body-up axis out of the chord. When
	// the chord is vertical the fallback is the depth axis.
	up := model.Vec3{Y: 1}
	perp := up.Sub(u.Scale(up.Dot(u)))
	if perp.Norm() < 1e-6 {
		alt := model.Vec3{Z: 1}
		perp = alt.Sub(u.Scale(alt.Dot(u)))
	}
	perp = perp.Scale(1 / perp.Norm())

	candidates := []model.Vec3{
		mid.Add(perp.Scale(offset)),
		mid.Sub(perp.Scale(offset)),
	}
	anchor := e.pickAnchor(candidates)

	// Validate: the anchor should sit one segment length from every
	// accepted posture. The spread of those distances is the quality metric.
	dists := make([]float64, 0, len(e.captures))
	for _, pos := range e.captures {
		dists = append(dists, anchor.DistanceTo(pos))
	}
	stddev := 0.0
	if len(dists) > 1 {
		stddev = stat.StdDev(dists, nil)
	}

	profile := model.CalibrationProfile{
		SegmentLengthM: e.segmentLength,
		Anchor:         anchor,
		CaptureStdDevM: stddev,
		Valid:          stddev <= e.maxAnchorStdDev,
		CapturedAt:     e.now(),
	}
	if !profile.Valid {
		metrics.RecordCalibrationFailure()
		return profile, ErrExcessiveVariance
	}
	return profile, nil
}

// pickAnchor chooses between the two bisector candidates: the one whose
// distances to all captures spread least, preferring the upper candidate on
// a tie (the anchor joint sits above the tracked end in every supported
// exercise).
func (e *Estimator) pickAnchor(candidates []model.Vec3) model.Vec3 {
	best := candidates[0]
	bestSpread := e.anchorSpread(candidates[0])
	for _, c := range candidates[1:] {
		if s := e.anchorSpread(c); s < bestSpread-1e-9 {
			best, bestSpread = c, s
		}
	}
	return best
}

func (e *Estimator) anchorSpread(anchor model.Vec3) float64 {
	dists := make([]float64, 0, len(e.captures))
	for _, pos := range e.captures {
		dists = append(dists, anchor.DistanceTo(pos))
	}
	if len(dists) < 2 {
		return 0
	}
	return stat.StdDev(dists, nil)
}

func centroidOf(samples []model.Vec3) model.Vec3 {
	var sum model.Vec3
	for _, s := range samples {
		sum = sum.Add(s)
	}
	return sum.Scale(1 / float64(len(samples)))
}
