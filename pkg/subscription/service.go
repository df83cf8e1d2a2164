package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/orbion/subledger/pkg/events"
	"github.com/orbion/subledger/pkg/logger"
	"github.com/orbion/subledger/pkg/period"
)

// Service performs subscription lifecycle operations on top of a Store and
// reports committed transitions to an events.Sink.
type Service struct {
	store     Store
	sink      events.Sink
	logger    *slog.Logger
	now       func() time.Time
	policy    Policy
	trialDays int
}

// NewService creates a new Service with the given store.
// Panics if store is nil to fail fast during initialization.
func NewService(store Store, opts ...ServiceOption) *Service {
	if store == nil {
		panic("subscription: Store is required")
	}

	s := &Service{
		store:     store,
		sink:      events.NopSink{},
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
		policy:    DefaultPolicy(),
		trialDays: DefaultTrialDays,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

// Policy returns the renewal policy in effect.
func (s *Service) Policy() Policy {
	return s.policy
}

// ProvisionTrial creates a TRIAL subscription ending trialLengthDays from now.
// A non-positive length uses the configured default.
func (s *Service) ProvisionTrial(ctx context.Context, tenantID uuid.UUID, module Module, trialLengthDays int) (*Subscription, error) {
	if tenantID == uuid.Nil {
		return nil, ErrMissingTenantID
	}
	if !module.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidModule, module)
	}
	if trialLengthDays <= 0 {
		trialLengthDays = s.trialDays
	}

	now := s.now()
	sub := &Subscription{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Module:    module,
		StartedAt: now,
	}
	sub.Apply(Trial{EndsAt: now.Add(period.Length(trialLengthDays))})

	if err := s.store.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.emit(ctx, events.TypeProvisioned, sub, "", nil)
	return sub, nil
}

// MarkPaid records a confirmed payment. TRIAL and PAST_DUE rows start a fresh
// period at asOf. ACTIVE rows only record the payment, which the next renewal
// consumes. SUSPENDED and CANCELLED rows fail with ErrInvalidTransition.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID, asOf time.Time, periodLengthDays int) (*Subscription, error) {
	if periodLengthDays <= 0 {
		periodLengthDays = s.policy.PeriodLengthDays
	}

	var from Status
	sub, err := s.store.Update(ctx, id, func(sub *Subscription) error {
		from = sub.Status
		switch sub.Status {
		case StatusTrial, StatusPastDue:
			sub.Apply(Active{
				Period:            period.Of(asOf, asOf, periodLengthDays),
				LastPaymentAt:     timePtr(asOf),
				CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
			})
		case StatusActive:
			sub.LastPaymentAt = timePtr(asOf)
		default:
			return errors.Join(ErrInvalidTransition, fmt.Errorf("cannot mark %s subscription as paid", sub.Status))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.TypePaid, sub, from, nil)
	return sub, nil
}

// PaymentConfirmed handles the external "payment received" signal for a
// (tenant, module) pair using the configured period length.
func (s *Service) PaymentConfirmed(ctx context.Context, tenantID uuid.UUID, module Module, asOf time.Time) (*Subscription, error) {
	sub, err := s.store.GetByTenantModule(ctx, tenantID, module)
	if err != nil {
		return nil, err
	}
	return s.MarkPaid(ctx, sub.ID, asOf, s.policy.PeriodLengthDays)
}

// CancelAtPeriodEnd schedules cancellation at the next period boundary.
// Idempotent; a no-op on CANCELLED rows.
func (s *Service) CancelAtPeriodEnd(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	return s.setCancelFlag(ctx, id, true, events.TypeCancelScheduled)
}

// UnscheduleCancel clears a scheduled cancellation.
// Idempotent; a no-op on CANCELLED rows.
func (s *Service) UnscheduleCancel(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	return s.setCancelFlag(ctx, id, false, events.TypeCancelUnscheduled)
}

func (s *Service) setCancelFlag(ctx context.Context, id uuid.UUID, flag bool, typ events.Type) (*Subscription, error) {
	changed := false
	sub, err := s.store.Update(ctx, id, func(sub *Subscription) error {
		if sub.Status == StatusCancelled || sub.CancelAtPeriodEnd == flag {
			return ErrUnchanged
		}
		sub.CancelAtPeriodEnd = flag
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.emit(ctx, typ, sub, sub.Status, nil)
	}
	return sub, nil
}

// CancelNow cancels immediately. Repeating it on a CANCELLED row returns the row
// unchanged.
func (s *Service) CancelNow(ctx context.Context, id uuid.UUID, asOf time.Time) (*Subscription, error) {
	var from Status
	sub, err := s.store.Update(ctx, id, func(sub *Subscription) error {
		if sub.Status == StatusCancelled {
			return ErrUnchanged
		}
		from = sub.Status
		sub.Apply(Cancelled{At: asOf})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if from != "" {
		s.emit(ctx, events.TypeCancelled, sub, from, nil)
	}
	return sub, nil
}

// Suspend blocks access until the subscription is reactivated.
// Only TRIAL, ACTIVE and PAST_DUE rows can be suspended; suspending a SUSPENDED
// row is a no-op.
func (s *Service) Suspend(ctx context.Context, id uuid.UUID, asOf time.Time) (*Subscription, error) {
	var from Status
	sub, err := s.store.Update(ctx, id, func(sub *Subscription) error {
		switch sub.Status {
		case StatusSuspended:
			return ErrUnchanged
		case StatusCancelled:
			return errors.Join(ErrInvalidTransition, errors.New("cannot suspend a cancelled subscription"))
		}
		from = sub.Status
		sub.Apply(Suspended{PastDueSince: copyTime(sub.PastDueSince)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if from != "" {
		s.emit(ctx, events.TypeSuspended, sub, from, nil)
	}
	return sub, nil
}

// Reactivate restarts a CANCELLED subscription as a fresh trial beginning at
// asOf. A paid restart follows up with MarkPaid.
func (s *Service) Reactivate(ctx context.Context, id uuid.UUID, asOf time.Time) (*Subscription, error) {
	sub, err := s.store.Update(ctx, id, func(sub *Subscription) error {
		if sub.Status != StatusCancelled {
			return errors.Join(ErrInvalidTransition, fmt.Errorf("cannot reactivate %s subscription", sub.Status))
		}
		sub.StartedAt = asOf
		sub.CancelAtPeriodEnd = false
		sub.Apply(Trial{EndsAt: asOf.Add(period.Length(s.trialDays))})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.TypeReactivated, sub, StatusCancelled, nil)
	return sub, nil
}

// Renew evaluates the renewal table for a loaded row using the service policy.
// It mutates sub in place and performs no I/O.
func (s *Service) Renew(sub *Subscription, asOf time.Time) Outcome {
	return Renew(sub, asOf, s.policy)
}

// RenewOne loads the row, evaluates the renewal table at asOf and commits the
// transition. Rows that are not due yield OutcomeNone and are not written.
func (s *Service) RenewOne(ctx context.Context, id uuid.UUID, asOf time.Time) (Outcome, error) {
	var out Outcome
	sub, err := s.store.Update(ctx, id, func(sub *Subscription) error {
		out = s.Renew(sub, asOf)
		if !out.Changed() {
			return ErrUnchanged
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	s.EmitOutcome(ctx, sub, out)
	return out, nil
}

// EmitOutcome reports a committed renewal outcome to the event sink.
// OutcomeNone is not reported.
func (s *Service) EmitOutcome(ctx context.Context, sub *Subscription, out Outcome) {
	typ, ok := outcomeEvents[out.Kind]
	if !ok {
		return
	}
	s.emit(ctx, typ, sub, out.From, nil)
}

var outcomeEvents = map[OutcomeKind]events.Type{
	OutcomeRenewed:   events.TypeRenewed,
	OutcomePastDue:   events.TypePastDue,
	OutcomeSuspended: events.TypeSuspended,
	OutcomeCancelled: events.TypeCancelled,
}

// Get retrieves a subscription by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	return s.store.Get(ctx, id)
}

// GetByTenantModule retrieves the subscription of a tenant to a module.
func (s *Service) GetByTenantModule(ctx context.Context, tenantID uuid.UUID, module Module) (*Subscription, error) {
	return s.store.GetByTenantModule(ctx, tenantID, module)
}

// ListByTenant returns every subscription of a tenant ordered by module.
func (s *Service) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*Subscription, error) {
	return s.store.ListByTenant(ctx, tenantID)
}

func (s *Service) emit(ctx context.Context, typ events.Type, sub *Subscription, from Status, err error) {
	s.logger.DebugContext(ctx, "subscription transition",
		slog.String("event", string(typ)),
		logger.SubscriptionID(sub.ID),
		logger.TenantID(sub.TenantID),
		logger.Module(string(sub.Module)),
		logger.Transition(string(from), string(sub.Status)),
	)
	s.sink.Emit(ctx, events.Event{
		Type:           typ,
		SubscriptionID: sub.ID,
		TenantID:       sub.TenantID,
		Module:         string(sub.Module),
		From:           string(from),
		To:             string(sub.Status),
		At:             s.now(),
		Err:            err,
	})
}
