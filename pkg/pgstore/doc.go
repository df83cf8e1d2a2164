// Package pgstore implements the subledger stores on PostgreSQL with pgx/v5.
//
//   - SubscriptionStore: subscription.Store with row locks for updates and
//     FOR UPDATE SKIP LOCKED (or NOWAIT on servers without it) for claims.
//   - UsageStore: usage.Store using UPDATE ... RETURNING and a unique key.
//   - TenantDirectory: entitlements.TenantDirectory over tenant_plans and
//     tenant_limit_overrides.
//   - EventSink: append-only events.Sink over subscription_events.
//
// The schema ships as embedded goose migrations in Migrations.
package pgstore
