package entitlements

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/orbion/subledger/pkg/period"
	"github.com/orbion/subledger/pkg/subscription"
	"github.com/orbion/subledger/pkg/usage"
)

// SubscriptionSource lists a tenant's subscriptions.
type SubscriptionSource interface {
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*subscription.Subscription, error)
}

// UsageSource reads counters of a period.
type UsageSource interface {
	PeriodUsage(ctx context.Context, tenantID uuid.UUID, module string, ct usage.CounterType, w period.Window) (map[string]int64, error)
}

// Resolver builds entitlement snapshots.
type Resolver struct {
	subs      SubscriptionSource
	usage     UsageSource
	catalog   Catalog
	directory TenantDirectory
}

// NewResolver creates a Resolver.
// Panics if any dependency is nil.
func NewResolver(subs SubscriptionSource, ledger UsageSource, catalog Catalog, directory TenantDirectory) *Resolver {
	if subs == nil {
		panic("entitlements: SubscriptionSource is required")
	}
	if ledger == nil {
		panic("entitlements: UsageSource is required")
	}
	if catalog == nil {
		panic("entitlements: Catalog is required")
	}
	if directory == nil {
		panic("entitlements: TenantDirectory is required")
	}
	return &Resolver{subs: subs, usage: ledger, catalog: catalog, directory: directory}
}

// Snapshot resolves the tenant's entitlements for every known module at asOf.
// It performs no writes.
func (r *Resolver) Snapshot(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*Snapshot, error) {
	plans, err := r.catalog.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	segment, err := r.directory.Segment(ctx, tenantID)
	if err != nil {
		return nil, errors.Join(ErrDirectoryLookup, err)
	}
	overrides, err := r.directory.Overrides(ctx, tenantID)
	if err != nil {
		return nil, errors.Join(ErrDirectoryLookup, err)
	}
	subs, err := r.subs.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, errors.Join(ErrSubscriptionLookup, err)
	}

	byModule := make(map[subscription.Module]*subscription.Subscription, len(subs))
	for _, sub := range subs {
		byModule[sub.Module] = sub
	}

	segment = plans.Segment(segment)
	snap := &Snapshot{
		TenantID: tenantID,
		Segment:  segment,
		AsOf:     asOf,
		Modules:  make([]ModuleSnapshot, 0, len(subscription.Modules())),
	}

	for _, m := range subscription.Modules() {
		ms, err := r.module(ctx, tenantID, m, byModule[m], Merge(plans.Limits(segment, m), overrides[m]))
		if err != nil {
			return nil, err
		}
		snap.Modules = append(snap.Modules, ms)
	}
	return snap, nil
}

func (r *Resolver) module(ctx context.Context, tenantID uuid.UUID, m subscription.Module, sub *subscription.Subscription, limits Limits) (ModuleSnapshot, error) {
	ms := ModuleSnapshot{
		Module:      m,
		Status:      StatusInactive,
		Limits:      limits,
		Usage:       make(map[string]int64, len(limits)),
		Operational: make(map[string]int64),
		Remaining:   make(map[string]*int64, len(limits)),
	}

	if sub != nil {
		ms.Status = string(sub.Status)
		ms.Enabled = sub.Enabled()
		ms.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
		if sub.TrialEndsAt != nil {
			t := *sub.TrialEndsAt
			ms.TrialEndsAt = &t
		}

		if w, ok := sub.ActiveWindow(); ok {
			ms.Period = w
			billable, err := r.usage.PeriodUsage(ctx, tenantID, string(m), usage.Billable, w)
			if err != nil {
				return ModuleSnapshot{}, errors.Join(ErrUsageLookup, err)
			}
			operational, err := r.usage.PeriodUsage(ctx, tenantID, string(m), usage.Operational, w)
			if err != nil {
				return ModuleSnapshot{}, errors.Join(ErrUsageLookup, err)
			}
			for k, v := range billable {
				ms.Usage[k] = v
			}
			for k, v := range operational {
				ms.Operational[k] = v
			}
		}
	}

	for metric, limit := range limits {
		used := ms.Usage[metric]
		ms.Usage[metric] = used
		if limit > 0 {
			rem := max(limit-used, 0)
			ms.Remaining[metric] = &rem
		} else {
			ms.Remaining[metric] = nil
		}
	}
	return ms, nil
}
