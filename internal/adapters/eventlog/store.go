// Package eventlog stores the repetition events of a session in memory:
// append-only writes from the dispatch worker, snapshot reads for callbacks
// and the end-of-session summary.
package eventlog

import (
	"sync"

	"github.com/physioflow/motion/internal/domain/model"
)

const defaultMaxEvents = 10000

// Store is a bounded append-only event log. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	events []model.RepetitionEvent
	max    int
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithMaxEvents bounds the log. Values below 1 are ignored.
func WithMaxEvents(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.max = n
		}
	}
}

// New creates an event log.
func New(opts ...Option) *Store {
	s := &Store{max: defaultMaxEvents}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append records one event. A full log rejects the write rather than
// silently dropping history.
func (s *Store) Append(ev model.RepetitionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) >= s.max {
		return ErrLogFull
	}
	s.events = append(s.events, ev)
	return nil
}

// Len returns the number of recorded events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Last returns the most recent event, if any.
func (s *Store) Last() (model.RepetitionEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.events) == 0 {
		return model.RepetitionEvent{}, false
	}
	return s.events[len(s.events)-1], true
}

// Snapshot returns a copy of all recorded events in order.
func (s *Store) Snapshot() []model.RepetitionEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.RepetitionEvent, len(s.events))
	copy(out, s.events)
	return out
}

// ROMs returns the per-repetition ROM values in order.
func (s *Store) ROMs() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]float64, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.ROMDegrees
	}
	return out
}

// Reset clears the log for a new session.
func (s *Store) Reset() {
	s.mu.Lock()
	s.events = s.events[:0]
	s.mu.Unlock()
}
