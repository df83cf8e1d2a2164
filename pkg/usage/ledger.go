package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/orbion/subledger/pkg/period"
)

const defaultMaxAttempts = 3

// PeriodResolver maps an instant to the period a tenant's module counts usage in.
type PeriodResolver interface {
	Resolve(ctx context.Context, tenantID uuid.UUID, module string, asOf time.Time) (period.Window, error)
}

// PeriodResolverFunc adapts a function to PeriodResolver.
type PeriodResolverFunc func(ctx context.Context, tenantID uuid.UUID, module string, asOf time.Time) (period.Window, error)

func (f PeriodResolverFunc) Resolve(ctx context.Context, tenantID uuid.UUID, module string, asOf time.Time) (period.Window, error) {
	return f(ctx, tenantID, module, asOf)
}

// FixedPeriods resolves periods of lengthDays tiled from anchor for every tenant.
func FixedPeriods(anchor time.Time, lengthDays int) PeriodResolver {
	return PeriodResolverFunc(func(_ context.Context, _ uuid.UUID, _ string, asOf time.Time) (period.Window, error) {
		return period.Of(anchor, asOf, lengthDays), nil
	})
}

// Ledger counts usage on top of a Store.
type Ledger struct {
	store       Store
	resolver    PeriodResolver
	maxAttempts int
	logger      *slog.Logger
}

// NewLedger creates a Ledger. By default periods are 30-day blocks tiled from
// the Unix epoch.
// Panics if store is nil.
func NewLedger(store Store, opts ...Option) *Ledger {
	if store == nil {
		panic("usage: Store is required")
	}
	l := &Ledger{
		store:       store,
		resolver:    FixedPeriods(time.Unix(0, 0).UTC(), period.DefaultLengthDays),
		maxAttempts: defaultMaxAttempts,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Increment adds delta to the counter of scope and returns the new value.
// A non-positive delta is a no-op that returns the current value.
func (l *Ledger) Increment(ctx context.Context, scope Scope, delta int64) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	if delta <= 0 {
		return l.Value(ctx, scope)
	}

	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		v, found, err := l.store.AddExisting(ctx, scope, delta)
		switch {
		case errors.Is(err, ErrStoreConflict):
			continue
		case err != nil:
			return 0, err
		case found:
			return v, nil
		}

		err = l.store.Create(ctx, scope, delta)
		switch {
		case err == nil:
			return delta, nil
		case errors.Is(err, ErrCounterExists), errors.Is(err, ErrStoreConflict):
			// Lost the race to a concurrent creator; go back to the add path.
			continue
		default:
			return 0, err
		}
	}

	l.logger.WarnContext(ctx, "usage increment exhausted retry budget",
		slog.String("scope", scope.String()),
		slog.Int("attempts", l.maxAttempts),
	)
	return 0, errors.Join(ErrLedgerContention, fmt.Errorf("scope %s after %d attempts", scope, l.maxAttempts))
}

// IncrementAt increments the counter of the period that covers asOf.
func (l *Ledger) IncrementAt(ctx context.Context, tenantID uuid.UUID, module string, ct CounterType, metricKey string, asOf time.Time, delta int64) (int64, error) {
	scope, err := l.scopeAt(ctx, tenantID, module, ct, metricKey, asOf)
	if err != nil {
		return 0, err
	}
	return l.Increment(ctx, scope, delta)
}

// IncrementBoth counts one event as both operational and billable usage. The two
// counters are independent rows.
func (l *Ledger) IncrementBoth(ctx context.Context, tenantID uuid.UUID, module, metricKey string, asOf time.Time, delta int64) (operational, billable int64, err error) {
	w, err := l.resolver.Resolve(ctx, tenantID, module, asOf)
	if err != nil {
		return 0, 0, err
	}
	operational, err = l.Increment(ctx, NewScope(tenantID, module, Operational, metricKey, w), delta)
	if err != nil {
		return 0, 0, err
	}
	billable, err = l.Increment(ctx, NewScope(tenantID, module, Billable, metricKey, w), delta)
	if err != nil {
		return operational, 0, err
	}
	return operational, billable, nil
}

// CurrentValue returns the counter for the period that covers asOf.
// A missing row reads as zero.
func (l *Ledger) CurrentValue(ctx context.Context, tenantID uuid.UUID, module string, ct CounterType, metricKey string, asOf time.Time) (int64, error) {
	scope, err := l.scopeAt(ctx, tenantID, module, ct, metricKey, asOf)
	if err != nil {
		return 0, err
	}
	return l.Value(ctx, scope)
}

// Value returns the counter of scope, zero when no row exists.
func (l *Ledger) Value(ctx context.Context, scope Scope) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	v, _, err := l.store.Get(ctx, scope)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// PeriodUsage returns every metric counted over the window.
func (l *Ledger) PeriodUsage(ctx context.Context, tenantID uuid.UUID, module string, ct CounterType, w period.Window) (map[string]int64, error) {
	if !w.Valid() {
		return nil, errors.Join(ErrInvalidScope, errors.New("period end must be after period start"))
	}
	return l.store.ListPeriod(ctx, tenantID, module, ct, w)
}

// Period resolves the window that covers asOf for a tenant's module.
func (l *Ledger) Period(ctx context.Context, tenantID uuid.UUID, module string, asOf time.Time) (period.Window, error) {
	return l.resolver.Resolve(ctx, tenantID, module, asOf)
}

func (l *Ledger) scopeAt(ctx context.Context, tenantID uuid.UUID, module string, ct CounterType, metricKey string, asOf time.Time) (Scope, error) {
	w, err := l.resolver.Resolve(ctx, tenantID, module, asOf)
	if err != nil {
		return Scope{}, err
	}
	return NewScope(tenantID, module, ct, metricKey, w), nil
}
