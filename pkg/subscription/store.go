package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UpdateFunc mutates a loaded row inside a store transaction. Returning
// ErrUnchanged leaves the row as it is; any other error aborts the write.
type UpdateFunc func(sub *Subscription) error

// Capabilities describes what a backend supports. It is resolved once when the
// store is constructed and never probed per call.
type Capabilities struct {
	// SupportsSkipLocked is true when due rows can be selected while skipping
	// rows other workers hold. Without it Claim falls back to a fail-fast lock.
	SupportsSkipLocked bool
}

// Store defines the interface for subscription persistence.
// (TenantID, Module) is unique.
type Store interface {
	// Create inserts a new row. Returns ErrAlreadyExists if (tenant, module) is taken.
	Create(ctx context.Context, sub *Subscription) error

	// Get retrieves a subscription by ID.
	// Returns ErrNotFound if no subscription exists.
	Get(ctx context.Context, id uuid.UUID) (*Subscription, error)

	GetByTenantModule(ctx context.Context, tenantID uuid.UUID, module Module) (*Subscription, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*Subscription, error)

	// Update atomically loads the row, applies fn and writes the result after
	// validating it. It waits for concurrent writers of the same row.
	Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*Subscription, error)

	// ListDue returns up to limit rows that are due at now, ordered by due time
	// ascending. Cancelled and suspended rows are never due.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Subscription, error)

	// Claim is Update with a non-blocking row lock. When another worker holds the
	// row it returns false and a nil error without calling fn.
	Claim(ctx context.Context, id uuid.UUID, fn UpdateFunc) (bool, error)

	Capabilities() Capabilities
}
