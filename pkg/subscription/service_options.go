package subscription

import (
	"log/slog"
	"time"

	"github.com/orbion/subledger/pkg/events"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// WithClock overrides the time source used for provisioning and reactivation.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithEventSink sets the sink that receives committed transitions.
func WithEventSink(sink events.Sink) ServiceOption {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithGracePeriod sets how long PAST_DUE lasts before suspension.
// Non-positive values are ignored.
func WithGracePeriod(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.policy.GracePeriod = d
		}
	}
}

// WithPeriodLengthDays sets the billing period length used by renewals and
// PaymentConfirmed.
func WithPeriodLengthDays(days int) ServiceOption {
	return func(s *Service) {
		if days > 0 {
			s.policy.PeriodLengthDays = days
		}
	}
}

// WithTrialDays sets the trial length used when callers pass zero.
func WithTrialDays(days int) ServiceOption {
	return func(s *Service) {
		if days > 0 {
			s.trialDays = days
		}
	}
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
