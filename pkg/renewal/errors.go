package renewal

import "errors"

var (
	ErrListDueFailed = errors.New("failed to list due subscriptions")
	ErrRowPanicked   = errors.New("renewal transition panicked")
)
