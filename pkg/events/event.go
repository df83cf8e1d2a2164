package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type identifies what happened to a subscription.
type Type string

const (
	TypeProvisioned       Type = "subscription.provisioned"
	TypePaid              Type = "subscription.paid"
	TypeRenewed           Type = "subscription.renewed"
	TypePastDue           Type = "subscription.past_due"
	TypeSuspended         Type = "subscription.suspended"
	TypeCancelled         Type = "subscription.cancelled"
	TypeCancelScheduled   Type = "subscription.cancel_scheduled"
	TypeCancelUnscheduled Type = "subscription.cancel_unscheduled"
	TypeReactivated       Type = "subscription.reactivated"
	TypeRenewalFailed     Type = "renewal.failed"
	TypeBatchCompleted    Type = "renewal.batch_completed"
)

// Event is a single lifecycle fact. Module, From and To are plain strings so
// this package stays free of domain imports.
type Event struct {
	Type           Type
	SubscriptionID uuid.UUID
	TenantID       uuid.UUID
	Module         string
	From           string
	To             string
	At             time.Time
	Err            error
	Stats          map[string]int // batch counters, set for TypeBatchCompleted
}

// Sink receives lifecycle events. Emit must not block for long and must be
// safe for concurrent use.
type Sink interface {
	Emit(ctx context.Context, e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, e Event)

func (f SinkFunc) Emit(ctx context.Context, e Event) { f(ctx, e) }

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Emit(context.Context, Event) {}

type multiSink []Sink

// Multi fans an event out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) Emit(ctx context.Context, e Event) {
	for _, s := range m {
		s.Emit(ctx, e)
	}
}
