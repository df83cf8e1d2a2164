package usage

import "errors"

var (
	// ErrLedgerContention is returned when an increment exhausted its retry budget.
	ErrLedgerContention = errors.New("usage ledger contention: retry budget exhausted")

	// ErrCounterExists is returned by Store.Create when the scope already has a row.
	ErrCounterExists = errors.New("usage counter already exists")

	// ErrStoreConflict marks a transient backend conflict the ledger may retry.
	ErrStoreConflict = errors.New("usage store conflict")

	ErrInvalidScope       = errors.New("invalid usage scope")
	ErrInvalidCounterType = errors.New("invalid counter type")
)
