package renewal

import (
	"context"
	"log/slog"
	"time"
)

// Runner calls Scheduler.RunBatch periodically.
type Runner struct {
	scheduler *Scheduler
	interval  time.Duration
	limit     int
	now       func() time.Time
	logger    *slog.Logger
}

// NewRunner creates a runner that checks for due subscriptions every minute.
// Panics if scheduler is nil.
func NewRunner(scheduler *Scheduler, opts ...RunnerOption) *Runner {
	if scheduler == nil {
		panic("renewal: scheduler is required")
	}
	r := &Runner{
		scheduler: scheduler,
		interval:  time.Minute,
		limit:     DefaultBatchLimit,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start runs a batch immediately and then on every tick until ctx is done.
func (r *Runner) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("renewal runner shutting down")
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick keeps running batches while they come back full and make progress, so a
// backlog drains without waiting for the next interval.
func (r *Runner) tick(ctx context.Context) {
	for ctx.Err() == nil {
		res, err := r.scheduler.RunBatch(ctx, r.now(), r.limit)
		if err != nil {
			r.logger.ErrorContext(ctx, "renewal batch failed", slog.String("error", err.Error()))
			return
		}
		if res.Checked < r.limit || res.Transitioned() == 0 {
			return
		}
	}
}
