package subledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/orbion/subledger/pkg/period"
	"github.com/orbion/subledger/pkg/subscription"
	"github.com/orbion/subledger/pkg/usage"
)

// SubscriptionLookup finds the subscription of a tenant's module.
type SubscriptionLookup interface {
	GetByTenantModule(ctx context.Context, tenantID uuid.UUID, module subscription.Module) (*subscription.Subscription, error)
}

// SubscriptionPeriods resolves usage periods from the subscription itself, so
// counters line up with the windows the entitlements snapshot reads: the trial
// window for trials and the billing period otherwise. The window is used as
// long as asOf is not before its start, which keeps usage recorded between a
// period end and the renewal batch in the period the snapshot still shows.
//
// Tenants without a subscription, suspended or cancelled subscriptions,
// unknown modules and instants before the window fall back to fallback. A nil fallback uses 30-day blocks tiled from
// the Unix epoch.
func SubscriptionPeriods(subs SubscriptionLookup, fallback usage.PeriodResolver) usage.PeriodResolver {
	if subs == nil {
		panic("subledger: SubscriptionLookup is required")
	}
	if fallback == nil {
		fallback = usage.FixedPeriods(time.Unix(0, 0).UTC(), period.DefaultLengthDays)
	}

	return usage.PeriodResolverFunc(func(ctx context.Context, tenantID uuid.UUID, module string, asOf time.Time) (period.Window, error) {
		m, err := subscription.ParseModule(module)
		if err != nil {
			return fallback.Resolve(ctx, tenantID, module, asOf)
		}

		sub, err := subs.GetByTenantModule(ctx, tenantID, m)
		switch {
		case errors.Is(err, subscription.ErrNotFound):
			return fallback.Resolve(ctx, tenantID, module, asOf)
		case err != nil:
			return period.Window{}, err
		}

		if !sub.Enabled() {
			return fallback.Resolve(ctx, tenantID, module, asOf)
		}
		if w, ok := sub.ActiveWindow(); ok && !asOf.Before(w.Start) {
			return w, nil
		}
		return fallback.Resolve(ctx, tenantID, module, asOf)
	})
}
