package usage

import (
	"log/slog"
	"time"
)

// Option configures a Ledger.
type Option func(*Ledger)

// WithMaxAttempts sets how many update-or-create rounds an increment may take
// before failing with ErrLedgerContention. Default 3.
func WithMaxAttempts(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.maxAttempts = n
		}
	}
}

// WithPeriodResolver sets how "current period" is resolved for reads and
// IncrementAt.
func WithPeriodResolver(r PeriodResolver) Option {
	return func(l *Ledger) {
		if r != nil {
			l.resolver = r
		}
	}
}

// WithAnchor uses fixed periods of lengthDays tiled from anchor.
func WithAnchor(anchor time.Time, lengthDays int) Option {
	return WithPeriodResolver(FixedPeriods(anchor, lengthDays))
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}
