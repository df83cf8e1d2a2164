package pgstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/orbion/subledger/pkg/pg"
	"github.com/orbion/subledger/pkg/subscription"
)

const subscriptionColumns = `id, tenant_id, module, status, started_at, trial_ends_at,
	current_period_start, current_period_end, next_renewal_at, last_payment_at,
	past_due_since, cancel_at_period_end, cancelled_at, created_at, updated_at`

const dueCondition = `status NOT IN ('cancelled', 'suspended')
	AND ((next_renewal_at IS NOT NULL AND next_renewal_at <= $1)
	  OR (next_renewal_at IS NULL AND status = 'trial' AND trial_ends_at <= $1))`

// SubscriptionStore is a subscription.Store backed by the subscriptions table.
type SubscriptionStore struct {
	db   DB
	caps pg.Capabilities
}

var _ subscription.Store = (*SubscriptionStore)(nil)

// NewSubscriptionStore creates the store. caps comes from pg.DetectCapabilities
// and decides how Claim locks rows.
func NewSubscriptionStore(db DB, caps pg.Capabilities) *SubscriptionStore {
	if db == nil {
		panic("pgstore: db is required")
	}
	return &SubscriptionStore{db: db, caps: caps}
}

func (s *SubscriptionStore) Capabilities() subscription.Capabilities {
	return subscription.Capabilities{SupportsSkipLocked: s.caps.SupportsSkipLocked}
}

func (s *SubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO subscriptions (id, tenant_id, module, status, started_at, trial_ends_at,
			current_period_start, current_period_end, next_renewal_at, last_payment_at,
			past_due_since, cancel_at_period_end, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`,
		sub.ID, sub.TenantID, string(sub.Module), string(sub.Status), sub.StartedAt, sub.TrialEndsAt,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.NextRenewalAt, sub.LastPaymentAt,
		sub.PastDueSince, sub.CancelAtPeriodEnd, sub.CancelledAt,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return subscription.ErrAlreadyExists
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) Get(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	row := s.db.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	return scanOne(row)
}

func (s *SubscriptionStore) GetByTenantModule(ctx context.Context, tenantID uuid.UUID, module subscription.Module) (*subscription.Subscription, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE tenant_id = $1 AND module = $2`,
		tenantID, string(module))
	return scanOne(row)
}

func (s *SubscriptionStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*subscription.Subscription, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	out, err := scanAll(rows)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b *subscription.Subscription) int {
		return slices.Index(subscription.Modules(), a.Module) - slices.Index(subscription.Modules(), b.Module)
	})
	return out, nil
}

func (s *SubscriptionStore) ListDue(ctx context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE ` + dueCondition +
		` ORDER BY COALESCE(next_renewal_at, trial_ends_at), id`
	args := []any{now}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}
	return scanAll(rows)
}

func (s *SubscriptionStore) Update(ctx context.Context, id uuid.UUID, fn subscription.UpdateFunc) (*subscription.Subscription, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1 FOR UPDATE`, id)
	current, err := scanOne(row)
	if err != nil {
		return nil, err
	}

	next, err := s.apply(ctx, tx, current, fn)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return next, nil
}

// Claim locks the row without waiting. With SKIP LOCKED a held row simply
// yields no result; otherwise NOWAIT fails with lock_not_available.
func (s *SubscriptionStore) Claim(ctx context.Context, id uuid.UUID, fn subscription.UpdateFunc) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lock := "FOR UPDATE NOWAIT"
	if s.caps.SupportsSkipLocked {
		lock = "FOR UPDATE SKIP LOCKED"
	}
	row := tx.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1 `+lock, id)
	current, err := scanOne(row)
	switch {
	case errors.Is(err, subscription.ErrNotFound) && s.caps.SupportsSkipLocked:
		// Either held by another worker or deleted since it was listed.
		return false, nil
	case err != nil && pg.IsLockNotAvailableError(err):
		return false, nil
	case err != nil:
		return false, err
	}

	if _, err := s.apply(ctx, tx, current, fn); err != nil {
		return true, err
	}
	if err := tx.Commit(ctx); err != nil {
		return true, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func (s *SubscriptionStore) apply(ctx context.Context, tx pgx.Tx, current *subscription.Subscription, fn subscription.UpdateFunc) (*subscription.Subscription, error) {
	next := current.Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, subscription.ErrUnchanged) {
			return current, nil
		}
		return nil, err
	}
	if next.ID != current.ID || next.TenantID != current.TenantID || next.Module != current.Module {
		return nil, fmt.Errorf("%w: identity columns are immutable", subscription.ErrInvariantViolation)
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	err := tx.QueryRow(ctx, `
		UPDATE subscriptions SET
			status = $2, started_at = $3, trial_ends_at = $4,
			current_period_start = $5, current_period_end = $6, next_renewal_at = $7,
			last_payment_at = $8, past_due_since = $9, cancel_at_period_end = $10,
			cancelled_at = $11, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		next.ID, string(next.Status), next.StartedAt, next.TrialEndsAt,
		next.CurrentPeriodStart, next.CurrentPeriodEnd, next.NextRenewalAt,
		next.LastPaymentAt, next.PastDueSince, next.CancelAtPeriodEnd, next.CancelledAt,
	).Scan(&next.UpdatedAt)
	if err != nil {
		if pg.IsSerializationError(err) {
			return nil, errors.Join(subscription.ErrRowLocked, err)
		}
		return nil, fmt.Errorf("update subscription: %w", err)
	}
	return next, nil
}

func scanOne(row pgx.Row) (*subscription.Subscription, error) {
	sub, err := scanSubscription(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, subscription.ErrNotFound
		}
		return nil, err
	}
	return sub, nil
}

func scanAll(rows pgx.Rows) ([]*subscription.Subscription, error) {
	defer rows.Close()

	var out []*subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read subscriptions: %w", err)
	}
	return out, nil
}

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var (
		sub            subscription.Subscription
		module, status string
	)
	err := row.Scan(
		&sub.ID, &sub.TenantID, &module, &status, &sub.StartedAt, &sub.TrialEndsAt,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.NextRenewalAt, &sub.LastPaymentAt,
		&sub.PastDueSince, &sub.CancelAtPeriodEnd, &sub.CancelledAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sub.Module = subscription.Module(module)
	sub.Status = subscription.Status(status)
	return &sub, nil
}
