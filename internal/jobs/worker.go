package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// JobProcessor defines the interface for processing jobs
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker runs a JobProcessor once at start and then on every tick until
// stopped or its context ends.
type Worker struct {
	name      string
	processor JobProcessor
	interval  time.Duration
	logger    zerolog.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewWorker creates a Worker. The name tags its log lines.
func NewWorker(name string, processor JobProcessor, interval time.Duration) *Worker {
	return &Worker{
		name:      name,
		processor: processor,
		interval:  interval,
		logger:    log.With().Str("worker", name).Logger(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start blocks running passes until Stop is called or ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().Dur("interval", w.interval).Msg("worker started")
	w.runPass(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("worker stopped: context cancelled")
			return
		case <-w.stop:
			w.logger.Info().Msg("worker stopped")
			return
		case <-ticker.C:
			w.runPass(ctx)
		}
	}
}

func (w *Worker) runPass(ctx context.Context) {
	started := time.Now()
	if err := w.processor.ProcessJobs(ctx); err != nil {
		w.logger.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("worker pass failed")
	}
}

// Stop signals the loop and waits for an in-flight pass to finish. It must
// only be called after Start; calling it more than once is safe.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}
