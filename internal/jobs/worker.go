package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval is the polling cadence between jobs.
const DefaultInterval = 200 * time.Millisecond

// Processor handles one job at a time. A returned error drops the job; it is
// logged, never retried.
type Processor interface {
	ProcessJob(ctx context.Context, j Job) error
}

// Worker drains the queue on a fixed tick, at most one job per tick.
type Worker struct {
	queue    *Queue
	proc     Processor
	interval time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker constructs a Worker. A non-positive interval falls back to
// DefaultInterval.
func NewWorker(q *Queue, proc Processor, interval time.Duration, log zerolog.Logger) *Worker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Worker{queue: q, proc: proc, interval: interval, log: log}
}

// Start launches the polling loop. Calling Start on a running worker is a
// no-op.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx, w.done)
	w.log.Info().Dur("interval", w.interval).Msg("job worker started")
}

// Stop cancels the loop and waits for it to exit. Calling Stop on a stopped
// worker is a no-op.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.log.Info().Msg("job worker stopped")
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j, ok := w.queue.Dequeue()
			if !ok {
				continue
			}
			if err := w.proc.ProcessJob(ctx, j); err != nil {
				w.log.Error().Err(err).Str("type", j.Type).Msg("job processing failed")
			}
		}
	}
}
