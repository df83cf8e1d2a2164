package entitlements

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orbion/subledger/pkg/period"
	"github.com/orbion/subledger/pkg/subscription"
)

// StatusInactive is reported for modules the tenant has no subscription to.
const StatusInactive = "inactive"

// Snapshot is a point-in-time view of a tenant's access and usage.
type Snapshot struct {
	TenantID uuid.UUID
	Segment  string
	AsOf     time.Time
	Modules  []ModuleSnapshot
}

// Module returns the snapshot of m. The second result is false when m is not a
// known module.
func (s *Snapshot) Module(m subscription.Module) (ModuleSnapshot, bool) {
	for _, ms := range s.Modules {
		if ms.Module == m {
			return ms, true
		}
	}
	return ModuleSnapshot{}, false
}

// ModuleSnapshot is the entitlement view of one module.
type ModuleSnapshot struct {
	Module            subscription.Module
	Enabled           bool
	Status            string
	CancelAtPeriodEnd bool
	TrialEndsAt       *time.Time
	Period            period.Window

	Limits      Limits
	Usage       map[string]int64 // billable
	Operational map[string]int64
	// Remaining is nil for unlimited metrics.
	Remaining map[string]*int64
}

// Limit returns the cap of metric, zero when none is configured.
func (m ModuleSnapshot) Limit(metric string) int64 {
	return m.Limits[metric]
}

// Used returns the billable usage of metric.
func (m ModuleSnapshot) Used(metric string) int64 {
	return m.Usage[metric]
}

// Counter is a display-ready usage counter.
type Counter struct {
	Key     string
	Label   string
	Unit    string // "count" or "mb"
	Used    int64
	Limit   int64
	Percent float64
	Limited bool
}

const maxPercent = 999

// Counters returns a counter per configured metric that is either capped or
// already used, sorted by key.
func (m ModuleSnapshot) Counters() []Counter {
	keys := make([]string, 0, len(m.Limits))
	for k := range m.Limits {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]Counter, 0, len(keys))
	for _, key := range keys {
		used, limit := m.Usage[key], m.Limits[key]
		if limit <= 0 && used <= 0 {
			continue
		}
		out = append(out, Counter{
			Key:     key,
			Label:   labelFromKey(key),
			Unit:    unitFromKey(key),
			Used:    used,
			Limit:   limit,
			Percent: percent(used, limit),
			Limited: limit > 0,
		})
	}
	return out
}

func percent(used, limit int64) float64 {
	if limit <= 0 || used <= 0 {
		return 0
	}
	return math.Min(float64(used)/float64(limit)*100, maxPercent)
}

func unitFromKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "mb" || strings.HasSuffix(k, "_mb") {
		return "mb"
	}
	return "count"
}

func labelFromKey(key string) string {
	k := strings.NewReplacer("-", "_", ".", "_").Replace(strings.TrimSpace(key))
	words := strings.FieldsFunc(k, func(r rune) bool { return r == '_' })
	if len(words) == 0 {
		return "Limit"
	}
	label := strings.Join(words, " ")
	return strings.ToUpper(label[:1]) + label[1:]
}
