package logger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type tenantKey struct{}

type subscriptionKey struct{}

// WithTenant stores the tenant a unit of work acts for.
func WithTenant(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantKey{}, id)
}

// WithSubscription stores the subscription a unit of work acts on.
func WithSubscription(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, subscriptionKey{}, id)
}

// TenantExtractor adds tenant_id to records whose context carries one.
func TenantExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		id, ok := ctx.Value(tenantKey{}).(uuid.UUID)
		if !ok || id == uuid.Nil {
			return slog.Attr{}, false
		}
		return TenantID(id), true
	}
}

// SubscriptionExtractor adds subscription_id to records whose context carries one.
func SubscriptionExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		id, ok := ctx.Value(subscriptionKey{}).(uuid.UUID)
		if !ok || id == uuid.Nil {
			return slog.Attr{}, false
		}
		return SubscriptionID(id), true
	}
}
