package entitlements

import (
	"context"
	"maps"
	"strings"
	"sync"

	"github.com/orbion/subledger/pkg/subscription"
)

// Segments shipped with DefaultPlans.
const (
	SegmentEmprendedor = "emprendedor"
	SegmentPyme        = "pyme"
	SegmentEnterprise  = "enterprise"

	// DefaultSegment applies to tenants without a known segment.
	DefaultSegment = SegmentEmprendedor
)

// Limits maps a metric key to its cap. Zero or less is unlimited.
type Limits map[string]int64

// Plans maps a segment to the default limits of every module.
type Plans map[string]map[subscription.Module]Limits

// Overrides holds tenant-specific limits per module. A nil value means "use the
// plan default".
type Overrides map[subscription.Module]map[string]*int64

// Catalog loads plan configuration.
type Catalog interface {
	Load(ctx context.Context) (Plans, error)
}

// DefaultPlans returns the built-in segment tiers.
func DefaultPlans() Plans {
	return Plans{
		SegmentEmprendedor: {
			subscription.ModuleInbound: {"recepciones_mes": 200, "incidencias_mes": 1000},
			subscription.ModuleWMS:     {"movimientos_mes": 5000, "productos": 3000},
		},
		SegmentPyme: {
			subscription.ModuleInbound: {"recepciones_mes": 2000, "incidencias_mes": 10000},
			subscription.ModuleWMS:     {"movimientos_mes": 50000, "productos": 20000},
		},
		SegmentEnterprise: {
			subscription.ModuleInbound: {"recepciones_mes": 100000, "incidencias_mes": 500000},
			subscription.ModuleWMS:     {"movimientos_mes": 99999999, "productos": 99999999},
		},
	}
}

// Clone returns a deep copy.
func (p Plans) Clone() Plans {
	out := make(Plans, len(p))
	for segment, modules := range p {
		mods := make(map[subscription.Module]Limits, len(modules))
		for m, limits := range modules {
			mods[m] = maps.Clone(limits)
		}
		out[segment] = mods
	}
	return out
}

// Limits returns the default limits of a module for a segment. Unknown segments
// fall back to DefaultSegment.
func (p Plans) Limits(segment string, module subscription.Module) Limits {
	return p[p.Segment(segment)][module]
}

// Segment normalizes a segment name, falling back to DefaultSegment when the
// name is empty or not in the catalog.
func (p Plans) Segment(segment string) string {
	s := strings.ToLower(strings.TrimSpace(segment))
	if _, ok := p[s]; ok {
		return s
	}
	return DefaultSegment
}

// Merge returns defaults with every non-nil override applied.
func Merge(defaults Limits, overrides map[string]*int64) Limits {
	out := make(Limits, len(defaults)+len(overrides))
	maps.Copy(out, defaults)
	for metric, v := range overrides {
		if v != nil {
			out[metric] = *v
		}
	}
	return out
}

// inMemCatalog implements the Catalog interface using an in-memory plan map.
type inMemCatalog struct {
	mu    sync.RWMutex
	plans Plans
}

// NewInMemCatalog returns an in-memory Catalog with a deep copy of the given plans.
func NewInMemCatalog(plans Plans) Catalog {
	return &inMemCatalog{plans: plans.Clone()}
}

// Load returns a copy of all plans.
func (c *inMemCatalog) Load(context.Context) (Plans, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.plans.Clone(), nil
}
