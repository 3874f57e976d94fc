package stream

import (
	"context"
	"sync"

	"github.com/physioflow/motion/pkg/logger"
)

// Processor consumes frames in arrival order. It is called from exactly one
// goroutine, so implementations need no internal locking.
type Processor interface {
	Process(ctx context.Context, f Frame)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, f Frame)

func (fn ProcessorFunc) Process(ctx context.Context, f Frame) { fn(ctx, f) }

// Worker drains the queue with a single goroutine. Start and Stop are
// idempotent.
type Worker struct {
	queue *Queue
	proc  Processor
	log   logger.Logger

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

// WorkerOption applies a configuration option to the Worker.
type WorkerOption func(*Worker)

// WithWorkerLogger sets the worker logger.
func WithWorkerLogger(log logger.Logger) WorkerOption {
	return func(w *Worker) {
		if log != nil {
			w.log = log
		}
	}
}

// NewWorker creates a worker bound to a queue and processor.
func NewWorker(queue *Queue, proc Processor, opts ...WorkerOption) *Worker {
	w := &Worker{
		queue: queue,
		proc:  proc,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the dispatch loop. The loop exits when the queue closes
// and drains, or when ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		for {
			select {
			case f, ok := <-w.queue.Frames():
				if !ok {
					return
				}
				w.proc.Process(ctx, f)
			case <-ctx.Done():
				w.log.Debug(ctx, "dispatch loop cancelled")
				return
			}
		}
	}()
}

// Stop closes the queue and waits for the dispatch loop to drain, bounded
// by ctx.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		w.queue.Close()
		return nil
	}
	done := w.done
	w.mu.Unlock()

	w.queue.Close()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
