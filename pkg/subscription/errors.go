package subscription

import "errors"

var (
	ErrNotFound          = errors.New("subscription not found")
	ErrAlreadyExists     = errors.New("subscription already exists")
	ErrInvalidTransition = errors.New("invalid subscription state transition")
	ErrInvalidModule     = errors.New("invalid module")
	ErrMissingTenantID   = errors.New("tenant ID is required")

	// ErrInvariantViolation is returned by stores when a write would leave a
	// row in an inconsistent state. It always indicates a programming error.
	ErrInvariantViolation = errors.New("subscription invariant violation")

	// ErrRowLocked marks a write that lost a lock conflict with another worker.
	ErrRowLocked = errors.New("subscription row is locked by another worker")

	// ErrUnchanged may be returned by an UpdateFunc to leave the row as it is.
	// Store.Update and Store.Claim then return the current row and a nil error.
	ErrUnchanged = errors.New("subscription unchanged")
)
