// Package model contains domain models passed between layers.
package model

import (
	"math"
	"time"
)

// Archetype selects the detection strategy family for an exercise.
type Archetype string

const (
	// ArchetypePendulum covers swing-and-return movements (e.g. arm swings).
	ArchetypePendulum Archetype = "pendulum"
	// ArchetypeCircular covers rotational movements (e.g. arm circles).
	ArchetypeCircular Archetype = "circular"
	// ArchetypeLinear covers one-way reach movements (e.g. wall slides).
	ArchetypeLinear Archetype = "linear"
)

// Valid reports whether a is a known archetype.
func (a Archetype) Valid() bool {
	switch a {
	case ArchetypePendulum, ArchetypeCircular, ArchetypeLinear:
		return true
	}
	return false
}

// PositionSample is one timestamped 3D tracker position, relative to the
// session baseline.
type PositionSample struct {
	TS  time.Time
	Pos Vec3
}

// IMUSample is one timestamped inertial reading. Accel is m/s², Gyro is
// rad/s per axis.
type IMUSample struct {
	TS    time.Time
	Accel Vec3
	Gyro  Vec3
}

// Keypoint is a single 2D image-plane joint with detection confidence.
type Keypoint struct {
	P          Vec2
	Confidence float64
}

// JointTriple is the camera-path input: three keypoints forming the angle
// at Vertex between the Vertex→Proximal and Vertex→Distal vectors.
type JointTriple struct {
	TS       time.Time
	Proximal Keypoint
	Vertex   Keypoint
	Distal   Keypoint
}

// AngleDeg returns the joint angle in degrees, or 0 when either limb vector
// is degenerate.
func (j JointTriple) AngleDeg() float64 {
	a := j.Proximal.P.Sub(j.Vertex.P)
	b := j.Distal.P.Sub(j.Vertex.P)
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	cos := a.Dot(b) / (na * nb)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// CalibrationProfile is the immutable output of the calibration estimator:
// the body-segment length and rotation anchor used to convert trajectory
// path length into an anatomical angle.
type CalibrationProfile struct {
	SegmentLengthM float64   `json:"segment_length_m"`
	Anchor         Vec3      `json:"anchor"`
	CaptureStdDevM float64   `json:"capture_stddev_m"`
	Valid          bool      `json:"valid"`
	CapturedAt     time.Time `json:"captured_at"`
}

// RepetitionEvent is emitted exactly once per completed repetition.
// Segment holds a snapshot of the repetition's trajectory.
type RepetitionEvent struct {
	ID         string           `json:"id"`
	Index      int              `json:"index"`
	ROMDegrees float64          `json:"rom_degrees"`
	Timestamp  time.Time        `json:"timestamp"`
	Strategy   string           `json:"strategy"`
	Segment    []PositionSample `json:"-"`
}

// SmoothnessPoint is one entry in the smoothness timeline.
type SmoothnessPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"score"`
}

// SessionSummary is returned by EndSession.
type SessionSummary struct {
	SessionID          string            `json:"session_id"`
	Archetype          Archetype         `json:"archetype"`
	Repetitions        int               `json:"repetitions"`
	AvgROMDegrees      float64           `json:"avg_rom_degrees"`
	MaxROMDegrees      float64           `json:"max_rom_degrees"`
	PerRepROMDegrees   []float64         `json:"per_rep_rom_degrees"`
	FinalSmoothness    float64           `json:"final_smoothness"`
	SmoothnessTimeline []SmoothnessPoint `json:"smoothness_timeline"`
	StartedAt          time.Time         `json:"started_at"`
	EndedAt            time.Time         `json:"ended_at"`
}
