package reminders

import (
	"context"
	"time"

	"github.com/hazelgrove/studio-scheduler/pkg/logging"
)

// Worker drives the scheduler on a fixed interval until its context is
// cancelled.
type Worker struct {
	scheduler *Scheduler
	interval  time.Duration
	logger    *logging.Logger
}

// NewWorker wraps a scheduler in an interval loop.
func NewWorker(scheduler *Scheduler, interval time.Duration, logger *logging.Logger) *Worker {
	if scheduler == nil {
		panic("reminders: scheduler required")
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{scheduler: scheduler, interval: interval, logger: logger}
}

// Run ticks immediately, then on every interval, until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminders: worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	if n := w.scheduler.Tick(ctx); n > 0 {
		w.logger.Info("reminders: tick complete", "sent", n)
	}
}
