package entitlements

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/orbion/subledger/pkg/subscription"
)

// TenantDirectory supplies per-tenant plan inputs.
type TenantDirectory interface {
	// Segment returns the tenant's segment, or "" when unknown.
	Segment(ctx context.Context, tenantID uuid.UUID) (string, error)

	// Overrides returns the tenant's limit overrides. A tenant without overrides
	// yields an empty map.
	Overrides(ctx context.Context, tenantID uuid.UUID) (Overrides, error)
}

// InMemDirectory is a TenantDirectory kept in memory.
type InMemDirectory struct {
	mu        sync.RWMutex
	segments  map[uuid.UUID]string
	overrides map[uuid.UUID]Overrides
}

func NewInMemDirectory() *InMemDirectory {
	return &InMemDirectory{
		segments:  make(map[uuid.UUID]string),
		overrides: make(map[uuid.UUID]Overrides),
	}
}

func (d *InMemDirectory) SetSegment(tenantID uuid.UUID, segment string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.segments[tenantID] = segment
}

// SetOverride sets one limit override. A nil limit clears it back to the plan
// default.
func (d *InMemDirectory) SetOverride(tenantID uuid.UUID, module subscription.Module, metric string, limit *int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ov, ok := d.overrides[tenantID]
	if !ok {
		ov = make(Overrides)
		d.overrides[tenantID] = ov
	}
	if ov[module] == nil {
		ov[module] = make(map[string]*int64)
	}
	if limit == nil {
		delete(ov[module], metric)
		return
	}
	v := *limit
	ov[module][metric] = &v
}

func (d *InMemDirectory) Segment(_ context.Context, tenantID uuid.UUID) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.segments[tenantID], nil
}

func (d *InMemDirectory) Overrides(_ context.Context, tenantID uuid.UUID) (Overrides, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(Overrides, len(d.overrides[tenantID]))
	for m, metrics := range d.overrides[tenantID] {
		cp := make(map[string]*int64, len(metrics))
		for k, v := range metrics {
			if v != nil {
				val := *v
				cp[k] = &val
			}
		}
		out[m] = cp
	}
	return out, nil
}
