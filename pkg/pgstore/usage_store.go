package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/orbion/subledger/pkg/period"
	"github.com/orbion/subledger/pkg/pg"
	"github.com/orbion/subledger/pkg/usage"
)

const scopeCondition = `tenant_id = $1 AND module = $2 AND counter_type = $3
	AND metric_key = $4 AND period_start = $5 AND period_end = $6`

// UsageStore is a usage.Store backed by the usage_counters table. Each call is
// a single statement, so the row lock taken by UPDATE serialises concurrent adds.
type UsageStore struct {
	db DB
}

var _ usage.Store = (*UsageStore)(nil)

func NewUsageStore(db DB) *UsageStore {
	if db == nil {
		panic("pgstore: db is required")
	}
	return &UsageStore{db: db}
}

func (s *UsageStore) AddExisting(ctx context.Context, scope usage.Scope, delta int64) (int64, bool, error) {
	var value int64
	err := s.db.QueryRow(ctx,
		`UPDATE usage_counters SET value = value + $7, updated_at = now()
		WHERE `+scopeCondition+` RETURNING value`,
		append(scopeArgs(scope), delta)...,
	).Scan(&value)
	switch {
	case pg.IsNotFoundError(err):
		return 0, false, nil
	case err != nil:
		return 0, false, classify("add usage", err)
	}
	return value, true, nil
}

func (s *UsageStore) Create(ctx context.Context, scope usage.Scope, value int64) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO usage_counters (tenant_id, module, counter_type, metric_key, period_start, period_end, value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		append(scopeArgs(scope), value)...,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return usage.ErrCounterExists
		}
		return classify("create usage counter", err)
	}
	return nil
}

func (s *UsageStore) Get(ctx context.Context, scope usage.Scope) (int64, bool, error) {
	var value int64
	err := s.db.QueryRow(ctx,
		`SELECT value FROM usage_counters WHERE `+scopeCondition,
		scopeArgs(scope)...,
	).Scan(&value)
	switch {
	case pg.IsNotFoundError(err):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("get usage: %w", err)
	}
	return value, true, nil
}

func (s *UsageStore) ListPeriod(ctx context.Context, tenantID uuid.UUID, module string, ct usage.CounterType, w period.Window) (map[string]int64, error) {
	rows, err := s.db.Query(ctx, `
		SELECT metric_key, value FROM usage_counters
		WHERE tenant_id = $1 AND module = $2 AND counter_type = $3
		  AND period_start = $4 AND period_end = $5`,
		tenantID, module, string(ct), w.Start, w.End,
	)
	if err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			key   string
			value int64
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read usage: %w", err)
	}
	return out, nil
}

func scopeArgs(scope usage.Scope) []any {
	return []any{
		scope.TenantID, scope.Module, string(scope.CounterType),
		scope.MetricKey, scope.PeriodStart, scope.PeriodEnd,
	}
}

// classify marks retryable conflicts so the ledger can try again.
func classify(op string, err error) error {
	if pg.IsSerializationError(err) || pg.IsLockNotAvailableError(err) {
		return errors.Join(usage.ErrStoreConflict, fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}
