// Package buffer provides a fixed-capacity FIFO sample buffer.
//
// Append never fails: on overflow the oldest entries are evicted, keeping
// memory bounded over arbitrarily long sessions. Snapshot returns a
// consistent ordered copy and is safe for many readers against one writer.
package buffer

import "sync"

// Ring is a bounded FIFO buffer of samples.
type Ring[T any] struct {
	mu   sync.RWMutex
	data []T
	pos  int
	full bool
}

// Option applies a configuration option to a Ring.
type Option[T any] func(*Ring[T])

// WithCapacity sets the buffer capacity. Values below 1 are ignored.
func WithCapacity[T any](capacity int) Option[T] {
	return func(r *Ring[T]) {
		if capacity > 0 {
			r.data = make([]T, capacity)
		}
	}
}

const defaultCapacity = 1024

// New creates a Ring with the default capacity unless overridden.
func New[T any](opts ...Option[T]) *Ring[T] {
	r := &Ring[T]{}
	for _, opt := range opts {
		opt(r)
	}
	if r.data == nil {
		r.data = make([]T, defaultCapacity)
	}
	return r
}

// Append adds a sample, evicting the oldest when the buffer is full.
func (r *Ring[T]) Append(v T) {
	r.mu.Lock()
	r.data[r.pos] = v
	r.pos++
	if r.pos >= len(r.data) {
		r.pos = 0
		r.full = true
	}
	r.mu.Unlock()
}

// Len returns the number of buffered samples.
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lenLocked()
}

func (r *Ring[T]) lenLocked() int {
	if r.full {
		return len(r.data)
	}
	return r.pos
}

// Cap returns the buffer capacity.
func (r *Ring[T]) Cap() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

// Snapshot returns the buffered samples in insertion order.
func (r *Ring[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, r.lenLocked())
	if r.full {
		n := copy(out, r.data[r.pos:])
		copy(out[n:], r.data[:r.pos])
	} else {
		copy(out, r.data[:r.pos])
	}
	return out
}

// Resize changes the capacity, retaining the newest samples that fit.
// Used for graceful degradation under memory pressure.
func (r *Ring[T]) Resize(capacity int) {
	if capacity < 1 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	old := make([]T, r.lenLocked())
	if r.full {
		n := copy(old, r.data[r.pos:])
		copy(old[n:], r.data[:r.pos])
	} else {
		copy(old, r.data[:r.pos])
	}
	if len(old) > capacity {
		old = old[len(old)-capacity:]
	}

	r.data = make([]T, capacity)
	copy(r.data, old)
	r.pos = len(old) % capacity
	r.full = len(old) == capacity
}

// Clear empties the buffer without releasing capacity.
func (r *Ring[T]) Clear() {
	r.mu.Lock()
	r.pos = 0
	r.full = false
	r.mu.Unlock()
}
