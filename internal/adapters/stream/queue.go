// Package stream decouples sample ingestion from processing: a bounded
// non-blocking frame queue fed by the capture threads, drained by a single
// dispatch worker so detector state never needs locking.
package stream

import (
	"context"
	"sync"

	"github.com/physioflow/motion/internal/domain/model"
	"github.com/physioflow/motion/pkg/metrics"
)

const defaultCapacity = 4096

// Frame is one ingested unit: exactly one of the pointers is set.
type Frame struct {
	Position *model.PositionSample
	IMU      *model.IMUSample
	Joints   *model.JointTriple
}

// Kind labels the frame for metrics.
func (f Frame) Kind() string {
	switch {
	case f.Position != nil:
		return "position"
	case f.IMU != nil:
		return "imu"
	case f.Joints != nil:
		return "keypoint"
	}
	return "empty"
}

// Queue is a bounded in-memory frame queue. Offer never blocks: when the
// worker falls behind, the newest frames are shed and counted.
type Queue struct {
	frames chan Frame
	cap    int

	mu     sync.RWMutex
	closed bool
}

// NewQueue creates a queue with configuration options.
func NewQueue(opts ...QueueOption) *Queue {
	q := &Queue{cap: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.frames = make(chan Frame, q.cap)

	metrics.UpdateQueueCapacity(q.cap)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

// QueueOption applies a configuration option to the Queue.
type QueueOption func(*Queue)

// WithQueueCapacity sets the queue capacity. Values below 1 are ignored.
func WithQueueCapacity(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.cap = n
		}
	}
}

// Offer enqueues a frame and reports whether it was accepted. A full or
// closed queue sheds the frame.
func (q *Queue) Offer(ctx context.Context, f Frame) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordSampleDropped("closed")
		return false
	}

	select {
	case q.frames <- f:
		metrics.RecordSampleIngested(f.Kind())
		size := len(q.frames)
		metrics.UpdateQueueSize(size)
		metrics.UpdateQueueUtilization(float64(size) / float64(q.cap))
		return true
	case <-ctx.Done():
		metrics.RecordSampleDropped("context_cancelled")
		return false
	default:
		metrics.RecordSampleDropped("overflow")
		return false
	}
}

// Frames returns the receive side of the queue. It is closed by Close after
// the buffered frames drain.
func (q *Queue) Frames() <-chan Frame {
	return q.frames
}

// Len returns the current queue depth.
func (q *Queue) Len() int {
	size := len(q.frames)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops intake. Buffered frames remain readable until drained.
// Idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.frames)
}

// IsClosed reports whether intake has stopped.
func (q *Queue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
