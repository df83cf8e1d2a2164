package entitlements

import "errors"

var (
	ErrFailedToLoadPlans  = errors.New("failed to load plan catalog")
	ErrInvalidCatalog     = errors.New("invalid plan catalog")
	ErrDirectoryLookup    = errors.New("failed to read tenant directory")
	ErrSubscriptionLookup = errors.New("failed to read tenant subscriptions")
	ErrUsageLookup        = errors.New("failed to read tenant usage")
)
