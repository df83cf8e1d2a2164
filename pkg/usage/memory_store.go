package usage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/orbion/subledger/pkg/period"
)

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[periodKey]map[string]int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[periodKey]map[string]int64)}
}

func (m *MemoryStore) AddExisting(ctx context.Context, scope Scope, delta int64) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics, ok := m.counters[scope.periodKey()]
	if !ok {
		return 0, false, nil
	}
	v, ok := metrics[scope.MetricKey]
	if !ok {
		return 0, false, nil
	}
	v += delta
	metrics[scope.MetricKey] = v
	return v, true, nil
}

func (m *MemoryStore) Create(ctx context.Context, scope Scope, value int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := scope.periodKey()
	metrics, ok := m.counters[key]
	if !ok {
		metrics = make(map[string]int64)
		m.counters[key] = metrics
	}
	if _, exists := metrics[scope.MetricKey]; exists {
		return ErrCounterExists
	}
	metrics[scope.MetricKey] = value
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, scope Scope) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.counters[scope.periodKey()][scope.MetricKey]
	return v, ok, nil
}

func (m *MemoryStore) ListPeriod(ctx context.Context, tenantID uuid.UUID, module string, ct CounterType, w period.Window) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := Scope{TenantID: tenantID, Module: module, CounterType: ct, PeriodStart: w.Start, PeriodEnd: w.End}.periodKey()
	out := make(map[string]int64, len(m.counters[key]))
	for metric, v := range m.counters[key] {
		out[metric] = v
	}
	return out, nil
}
