package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/orbion/subledger/pkg/entitlements"
	"github.com/orbion/subledger/pkg/pg"
	"github.com/orbion/subledger/pkg/subscription"
)

// TenantDirectory reads tenant segments and limit overrides.
type TenantDirectory struct {
	db DB
}

var _ entitlements.TenantDirectory = (*TenantDirectory)(nil)

func NewTenantDirectory(db DB) *TenantDirectory {
	if db == nil {
		panic("pgstore: db is required")
	}
	return &TenantDirectory{db: db}
}

func (d *TenantDirectory) Segment(ctx context.Context, tenantID uuid.UUID) (string, error) {
	var segment string
	err := d.db.QueryRow(ctx, `SELECT segment FROM tenant_plans WHERE tenant_id = $1`, tenantID).Scan(&segment)
	switch {
	case pg.IsNotFoundError(err):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("get tenant segment: %w", err)
	}
	return segment, nil
}

// Overrides returns the non-null overrides of the tenant. Rows for modules the
// engine does not know are ignored.
func (d *TenantDirectory) Overrides(ctx context.Context, tenantID uuid.UUID) (entitlements.Overrides, error) {
	rows, err := d.db.Query(ctx, `
		SELECT module, metric_key, limit_value FROM tenant_limit_overrides
		WHERE tenant_id = $1 AND limit_value IS NOT NULL`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	out := make(entitlements.Overrides)
	for rows.Next() {
		var (
			module, metric string
			limit          int64
		)
		if err := rows.Scan(&module, &metric, &limit); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		m, err := subscription.ParseModule(module)
		if err != nil {
			continue
		}
		if out[m] == nil {
			out[m] = make(map[string]*int64)
		}
		out[m][metric] = &limit
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	return out, nil
}

// SetSegment assigns the tenant's segment.
func (d *TenantDirectory) SetSegment(ctx context.Context, tenantID uuid.UUID, segment string) error {
	_, err := d.db.Exec(ctx, `
		INSERT INTO tenant_plans (tenant_id, segment) VALUES ($1, $2)
		ON CONFLICT (tenant_id) DO UPDATE SET segment = EXCLUDED.segment, updated_at = now()`,
		tenantID, segment)
	if err != nil {
		return fmt.Errorf("set tenant segment: %w", err)
	}
	return nil
}

// SetOverride stores one limit override. A nil limit removes it.
func (d *TenantDirectory) SetOverride(ctx context.Context, tenantID uuid.UUID, module subscription.Module, metric string, limit *int64) error {
	var err error
	if limit == nil {
		_, err = d.db.Exec(ctx, `
			DELETE FROM tenant_limit_overrides
			WHERE tenant_id = $1 AND module = $2 AND metric_key = $3`,
			tenantID, string(module), metric)
	} else {
		_, err = d.db.Exec(ctx, `
			INSERT INTO tenant_limit_overrides (tenant_id, module, metric_key, limit_value)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (tenant_id, module, metric_key)
			DO UPDATE SET limit_value = EXCLUDED.limit_value, updated_at = now()`,
			tenantID, string(module), metric, *limit)
	}
	if err != nil {
		return fmt.Errorf("set override: %w", err)
	}
	return nil
}
