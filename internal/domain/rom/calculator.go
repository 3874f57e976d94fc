// Package rom converts trajectory segments into range-of-motion angles.
package rom

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/physioflow/motion/internal/domain/model"
	"github.com/physioflow/motion/pkg/logger"
	"github.com/physioflow/motion/pkg/metrics"
)

// Plane identifies the 2D projection plane used for angle computation.
type Plane string

const (
	PlaneXY Plane = "xy"
	PlaneXZ Plane = "xz"
	PlaneYZ Plane = "yz"
)

const (
	defaultPlaneHysteresis = 5
	defaultMedianWindow    = 3
	defaultNoiseFloorM     = 0.001
	defaultClampMaxDeg     = 180.0
	degPerRad              = 180.0 / math.Pi
)

// Calculator computes ROM angles from position segments. Plane selection
// carries state across calls so a streaming session keeps a stable plane;
// everything else is stateless.
type Calculator struct {
	segmentLength   float64
	planeHysteresis int
	medianWindow    int
	noiseFloor      float64
	clampMax        float64
	angleOffset     float64
	log             logger.Logger

	plane           Plane
	candidate       Plane
	candidateStreak int
}

// New creates a Calculator for a limb segment of the given length in metres.
func New(segmentLengthM float64, opts ...Option) *Calculator {
	c := &Calculator{
		segmentLength:   segmentLengthM,
		planeHysteresis: defaultPlaneHysteresis,
		medianWindow:    defaultMedianWindow,
		noiseFloor:      defaultNoiseFloorM,
		clampMax:        defaultClampMaxDeg,
		log:             logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Plane returns the currently selected projection plane, empty before the
// first segment is observed.
func (c *Calculator) Plane() Plane { return c.plane }

// ResetPlane clears plane-selection state for a new session.
func (c *Calculator) ResetPlane() {
	c.plane = ""
	c.candidate = ""
	c.candidateStreak = 0
}

// ArcROM computes the range of motion for an arc-like (pendulum or linear)
// segment: the traversed arc length divided by the segment length, in degrees.
// Degenerate segments report zero rather than an error.
func (c *Calculator) ArcROM(ctx context.Context, samples []model.PositionSample) float64 {
	if c.segmentLength <= 0 || len(samples) < 2 {
		return c.degenerate(ctx, "short or unconfigured segment")
	}

	pts := c.project(samples, c.selectPlane(samples))
	arc := c.arcLength(medianFilter(pts, c.medianWindow))
	if arc <= 0 {
		return c.degenerate(ctx, "zero arc length")
	}

	return c.clamp(ctx, arc/c.segmentLength*degPerRad+c.angleOffset)
}

// CircularROM computes the range of motion for a circular movement: the
// half-angle subtended at the joint by the traced circle, asin(r/L).
func (c *Calculator) CircularROM(ctx context.Context, samples []model.PositionSample) float64 {
	if c.segmentLength <= 0 || len(samples) < 3 {
		return c.degenerate(ctx, "short or unconfigured segment")
	}

	pts := medianFilter(c.project(samples, c.selectPlane(samples)), c.medianWindow)

	var centroid model.Vec2
	for _, p := range pts {
		centroid.X += p.X
		centroid.Y += p.Y
	}
	centroid.X /= float64(len(pts))
	centroid.Y /= float64(len(pts))

	var radius float64
	for _, p := range pts {
		radius += p.DistanceTo(centroid)
	}
	radius /= float64(len(pts))

	if radius <= 0 {
		return c.degenerate(ctx, "zero radius")
	}

	ratio := radius / c.segmentLength
	if ratio > 1 {
		ratio = 1
	}
	return c.clamp(ctx, math.Asin(ratio)*degPerRad+c.angleOffset)
}

// selectPlane picks the two highest-variance axes and applies switch
// hysteresis so frame-to-frame noise cannot flap the projection.
func (c *Calculator) selectPlane(samples []model.PositionSample) Plane {
	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	zs := make([]float64, len(samples))
	for i, s := range samples {
		xs[i], ys[i], zs[i] = s.Pos.X, s.Pos.Y, s.Pos.Z
	}

	vx := stat.Variance(xs, nil)
	vy := stat.Variance(ys, nil)
	vz := stat.Variance(zs, nil)

	// Drop the least-varying axis.
	best := PlaneXY
	switch {
	case vx <= vy && vx <= vz:
		best = PlaneYZ
	case vy <= vx && vy <= vz:
		best = PlaneXZ
	}

	if c.plane == "" {
		c.plane = best
		return c.plane
	}
	if best == c.plane {
		c.candidateStreak = 0
		return c.plane
	}
	if best == c.candidate {
		c.candidateStreak++
	} else {
		c.candidate = best
		c.candidateStreak = 1
	}
	if c.candidateStreak >= c.planeHysteresis {
		c.plane = best
		c.candidateStreak = 0
	}
	return c.plane
}

func (c *Calculator) project(samples []model.PositionSample, plane Plane) []model.Vec2 {
	out := make([]model.Vec2, len(samples))
	for i, s := range samples {
		switch plane {
		case PlaneXZ:
			out[i] = model.Vec2{X: s.Pos.X, Y: s.Pos.Z}
		case PlaneYZ:
			out[i] = model.Vec2{X: s.Pos.Y, Y: s.Pos.Z}
		default:
			out[i] = model.Vec2{X: s.Pos.X, Y: s.Pos.Y}
		}
	}
	return out
}

// arcLength sums consecutive distances, ignoring steps below the noise
// floor so stationary jitter does not accumulate into phantom motion.
func (c *Calculator) arcLength(pts []model.Vec2) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		if d := pts[i].DistanceTo(pts[i-1]); d >= c.noiseFloor {
			total += d
		}
	}
	return total
}

func (c *Calculator) clamp(ctx context.Context, deg float64) float64 {
	if deg < 0 {
		deg = 0
	}
	if deg > c.clampMax {
		c.log.Warn(ctx, "range of motion clamped",
			logger.Float64("raw_deg", deg),
			logger.Float64("clamp_deg", c.clampMax),
		)
		metrics.RecordROMClamp()
		return c.clampMax
	}
	return deg
}

func (c *Calculator) degenerate(ctx context.Context, reason string) float64 {
	c.log.Warn(ctx, "degenerate segment, reporting zero range of motion",
		logger.String("reason", reason),
	)
	metrics.RecordDegenerateSegment()
	return 0
}

// medianFilter smooths each axis with a centered running median. Window
// sizes below 2 are a no-op.
func medianFilter(pts []model.Vec2, window int) []model.Vec2 {
	if window < 2 || len(pts) < window {
		return pts
	}
	half := window / 2
	out := make([]model.Vec2, len(pts))
	xs := make([]float64, 0, window)
	ys := make([]float64, 0, window)
	for i := range pts {
		lo := max(0, i-half)
		hi := min(len(pts), i+half+1)
		xs = xs[:0]
		ys = ys[:0]
		for j := lo; j < hi; j++ {
			xs = append(xs, pts[j].X)
			ys = append(ys, pts[j].Y)
		}
		out[i] = model.Vec2{X: median(xs), Y: median(ys)}
	}
	return out
}

func median(vals []float64) float64 {
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}
