package subscription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type tenantModule struct {
	tenantID uuid.UUID
	module   Module
}

type memoryRow struct {
	mu  sync.Mutex
	sub *Subscription
}

// MemoryStore is an in-process Store. Every row has its own lock, so Claim can
// skip rows held by other goroutines the way a SKIP LOCKED query does.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   map[uuid.UUID]*memoryRow
	byPair map[tenantModule]uuid.UUID
	now    func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:   make(map[uuid.UUID]*memoryRow),
		byPair: make(map[tenantModule]uuid.UUID),
		now:    time.Now,
	}
}

func (m *MemoryStore) Capabilities() Capabilities {
	return Capabilities{SupportsSkipLocked: true}
}

func (m *MemoryStore) Create(ctx context.Context, sub *Subscription) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sub.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := tenantModule{sub.TenantID, sub.Module}
	if _, ok := m.byPair[key]; ok {
		return ErrAlreadyExists
	}
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if _, ok := m.rows[sub.ID]; ok {
		return ErrAlreadyExists
	}

	now := m.now()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	m.rows[sub.ID] = &memoryRow{sub: sub.Clone()}
	m.byPair[key] = sub.ID
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, err := m.row(id)
	if err != nil {
		return nil, err
	}
	row.mu.Lock()
	defer row.mu.Unlock()
	return row.sub.Clone(), nil
}

func (m *MemoryStore) GetByTenantModule(ctx context.Context, tenantID uuid.UUID, module Module) (*Subscription, error) {
	m.mu.RLock()
	id, ok := m.byPair[tenantModule{tenantID, module}]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.Get(ctx, id)
}

func (m *MemoryStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var ids []uuid.UUID
	for key, id := range m.byPair {
		if key.tenantID == tenantID {
			ids = append(ids, id)
		}
	}
	m.mu.RUnlock()

	out := make([]*Subscription, 0, len(ids))
	for _, id := range ids {
		sub, err := m.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	slices.SortFunc(out, func(a, b *Subscription) int {
		return compareModules(a.Module, b.Module)
	})
	return out, nil
}

func (m *MemoryStore) Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, err := m.row(id)
	if err != nil {
		return nil, err
	}

	row.mu.Lock()
	defer row.mu.Unlock()
	return m.apply(row, fn)
}

func (m *MemoryStore) Claim(ctx context.Context, id uuid.UUID, fn UpdateFunc) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	row, err := m.row(id)
	if err != nil {
		return false, err
	}

	if !row.mu.TryLock() {
		return false, nil
	}
	defer row.mu.Unlock()

	_, err = m.apply(row, fn)
	return true, err
}

func (m *MemoryStore) ListDue(ctx context.Context, now time.Time, limit int) ([]*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	rows := make([]*memoryRow, 0, len(m.rows))
	for _, row := range m.rows {
		rows = append(rows, row)
	}
	m.mu.RUnlock()

	type due struct {
		at  time.Time
		sub *Subscription
	}
	var list []due
	for _, row := range rows {
		// Rows held by a worker are skipped, matching SKIP LOCKED.
		if !row.mu.TryLock() {
			continue
		}
		at, ok := row.sub.DueAt()
		if ok && !at.After(now) {
			list = append(list, due{at: at, sub: row.sub.Clone()})
		}
		row.mu.Unlock()
	}

	slices.SortFunc(list, func(a, b due) int {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
		return compareIDs(a.sub.ID, b.sub.ID)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	out := make([]*Subscription, len(list))
	for i, d := range list {
		out[i] = d.sub
	}
	return out, nil
}

// apply runs fn on a copy of the row. The caller holds row.mu.
func (m *MemoryStore) apply(row *memoryRow, fn UpdateFunc) (*Subscription, error) {
	next := row.sub.Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, ErrUnchanged) {
			return row.sub.Clone(), nil
		}
		return nil, err
	}
	if next.ID != row.sub.ID || next.TenantID != row.sub.TenantID || next.Module != row.sub.Module {
		return nil, fmt.Errorf("%w: identity columns are immutable", ErrInvariantViolation)
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	next.UpdatedAt = m.now()
	row.sub = next
	return next.Clone(), nil
}

func (m *MemoryStore) row(id uuid.UUID) (*memoryRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return row, nil
}

func compareModules(a, b Module) int {
	return slices.Index(Modules(), a) - slices.Index(Modules(), b)
}

func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}
