package model

import "time"

// TrajectorySegment accumulates the positions of one in-progress repetition.
// It is owned by a single detector goroutine; cross-goroutine readers must
// use Snapshot.
type TrajectorySegment struct {
	samples []PositionSample
	maxLen  int
}

// NewTrajectorySegment creates a segment bounded to maxLen samples. Once the
// bound is reached the oldest samples are dropped, keeping a long hold from
// growing without limit.
func NewTrajectorySegment(maxLen int) *TrajectorySegment {
	if maxLen < 2 {
		maxLen = 2
	}
	return &TrajectorySegment{maxLen: maxLen}
}

// Append adds a sample to the segment, evicting the oldest on overflow.
func (s *TrajectorySegment) Append(p PositionSample) {
	if len(s.samples) >= s.maxLen {
		copy(s.samples, s.samples[1:])
		s.samples = s.samples[:len(s.samples)-1]
	}
	s.samples = append(s.samples, p)
}

// Len returns the number of buffered samples.
func (s *TrajectorySegment) Len() int { return len(s.samples) }

// First returns the oldest sample. Only valid when Len() > 0.
func (s *TrajectorySegment) First() PositionSample { return s.samples[0] }

// Last returns the newest sample. Only valid when Len() > 0.
func (s *TrajectorySegment) Last() PositionSample { return s.samples[len(s.samples)-1] }

// Duration returns the time span covered by the segment.
func (s *TrajectorySegment) Duration() time.Duration {
	if len(s.samples) < 2 {
		return 0
	}
	return s.samples[len(s.samples)-1].TS.Sub(s.samples[0].TS)
}

// Snapshot returns a copy of the buffered samples in order.
func (s *TrajectorySegment) Snapshot() []PositionSample {
	out := make([]PositionSample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Reset clears the segment for the next repetition. Capacity is retained.
func (s *TrajectorySegment) Reset() { s.samples = s.samples[:0] }
