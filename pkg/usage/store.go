package usage

import (
	"context"

	"github.com/google/uuid"

	"github.com/orbion/subledger/pkg/period"
)

// Store defines the storage primitives the Ledger composes into a safe increment.
// Every method touches a single row and is atomic on its own.
type Store interface {
	// AddExisting adds delta to the row of scope and returns the new value.
	// found is false, with a nil error, when the row does not exist.
	AddExisting(ctx context.Context, scope Scope, delta int64) (value int64, found bool, err error)

	// Create inserts the row of scope with the given value.
	// Returns ErrCounterExists if another writer created it first.
	Create(ctx context.Context, scope Scope, value int64) error

	// Get returns the value of scope. found is false when no row exists.
	Get(ctx context.Context, scope Scope) (value int64, found bool, err error)

	// ListPeriod returns every metric counted for the tenant, module and counter
	// type over exactly the window w.
	ListPeriod(ctx context.Context, tenantID uuid.UUID, module string, ct CounterType, w period.Window) (map[string]int64, error)
}
