// Package subscription manages the per-tenant, per-module subscription record and
// its lifecycle transitions.
//
// Each tenant holds at most one subscription per module. A subscription starts as a
// trial, becomes active only when a payment is confirmed, and is advanced by the
// renewal job through past-due, suspended and cancelled states.
//
// # Architecture
//
// The package separates three concerns:
//
//   - Subscription: the flat storage row with nullable columns used for querying.
//   - State: a tagged union (Trial, Active, PastDue, Suspended, Cancelled) that is
//     the only way transitions write to a row. Applying a state clears every column
//     the target state does not own.
//   - Store: persistence with atomic read-modify-write (Update) and a non-blocking
//     row claim (Claim) for concurrent renewal workers.
//
// Service composes them and reports every committed transition to an events.Sink.
//
// # Usage
//
//	svc := subscription.NewService(subscription.NewMemoryStore(),
//		subscription.WithGracePeriod(72*time.Hour),
//		subscription.WithEventSink(events.NewLogSink(logger)),
//	)
//
//	sub, err := svc.ProvisionTrial(ctx, tenantID, subscription.ModuleInbound, 14)
//	if errors.Is(err, subscription.ErrAlreadyExists) {
//		// module already provisioned
//	}
//
//	// Payment webhook confirmed money arrived.
//	sub, err = svc.MarkPaid(ctx, sub.ID, time.Now(), 30)
//
//	// Driven by the renewal scheduler.
//	outcome, err := svc.RenewOne(ctx, sub.ID, time.Now())
//
// # Renewal
//
// Renew evaluates the transition table for a loaded row. The first rule whose
// status and guard match wins; when nothing matches the outcome is OutcomeNone and
// the row is left untouched. TRIAL never becomes ACTIVE through renewal.
//
// # Error Handling
//
//   - ErrAlreadyExists: the (tenant, module) pair is already provisioned.
//   - ErrInvalidTransition: the operation is not allowed from the current status.
//   - ErrNotFound: no subscription matches the reference.
//   - ErrInvariantViolation: a write would break the row invariants.
//   - ErrRowLocked: a concurrent worker holds the row.
package subscription
