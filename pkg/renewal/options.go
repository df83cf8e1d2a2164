package renewal

import (
	"log/slog"
	"time"

	"github.com/orbion/subledger/pkg/events"
)

// SchedulerOption is a functional option for configuring a Scheduler.
type SchedulerOption func(*Scheduler)

// WithEventSink sets the sink for per-row failures and batch summaries.
func WithEventSink(sink events.Sink) SchedulerOption {
	return func(s *Scheduler) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithLogger sets the logger for the scheduler.
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// RunnerOption is a functional option for configuring a Runner.
type RunnerOption func(*Runner)

// WithInterval sets how often the runner starts a batch.
func WithInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithBatchLimit caps the rows processed per batch.
func WithBatchLimit(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.limit = n
		}
	}
}

// WithClock overrides the time source that stamps each batch.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRunnerLogger sets the logger for the runner loop.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}
