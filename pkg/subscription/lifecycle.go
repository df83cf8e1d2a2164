package subscription

import (
	"time"

	"github.com/orbion/subledger/pkg/period"
)

// OutcomeKind classifies what a renewal evaluation did to a row.
type OutcomeKind string

const (
	OutcomeNone      OutcomeKind = "none"
	OutcomeRenewed   OutcomeKind = "renewed"
	OutcomePastDue   OutcomeKind = "past_due"
	OutcomeSuspended OutcomeKind = "suspended"
	OutcomeCancelled OutcomeKind = "cancelled"
)

// Outcome is the result of evaluating the renewal table for one row.
type Outcome struct {
	Kind OutcomeKind
	From Status
	To   Status
}

// Changed reports whether the row was transitioned.
func (o Outcome) Changed() bool {
	return o.Kind != OutcomeNone
}

// Policy carries the operational knobs of the renewal table.
type Policy struct {
	PeriodLengthDays int
	GracePeriod      time.Duration
}

// DefaultPolicy returns 30-day periods with DefaultGracePeriod.
func DefaultPolicy() Policy {
	return Policy{
		PeriodLengthDays: period.DefaultLengthDays,
		GracePeriod:      DefaultGracePeriod,
	}
}

type renewalRule struct {
	from  Status
	guard func(s *Subscription, asOf time.Time) bool
	next  func(s *Subscription, asOf time.Time, p Policy) (State, OutcomeKind)
}

// renewalRules is evaluated in order; the first rule whose status and guard
// match wins.
var renewalRules = []renewalRule{
	{
		from:  StatusTrial,
		guard: trialEnded,
		next:  cancelAt,
	},
	{
		from: StatusActive,
		guard: func(s *Subscription, asOf time.Time) bool {
			return s.CancelAtPeriodEnd && periodElapsed(s, asOf)
		},
		next: cancelAt,
	},
	{
		from: StatusActive,
		guard: func(s *Subscription, asOf time.Time) bool {
			return periodElapsed(s, asOf) && paymentObserved(s)
		},
		next: func(s *Subscription, _ time.Time, p Policy) (State, OutcomeKind) {
			// Consume the payment: the next renewal needs one after the new start.
			next := period.Of(*s.CurrentPeriodEnd, *s.CurrentPeriodEnd, p.PeriodLengthDays)
			return Active{
				Period:        next,
				LastPaymentAt: timePtr(next.Start),
			}, OutcomeRenewed
		},
	},
	{
		from:  StatusActive,
		guard: periodElapsed,
		next: func(s *Subscription, asOf time.Time, p Policy) (State, OutcomeKind) {
			return PastDue{
				Period:            s.period(),
				Since:             asOf,
				GraceEndsAt:       asOf.Add(p.GracePeriod),
				LastPaymentAt:     copyTime(s.LastPaymentAt),
				CancelAtPeriodEnd: s.CancelAtPeriodEnd,
			}, OutcomePastDue
		},
	},
	{
		from: StatusPastDue,
		guard: func(s *Subscription, _ time.Time) bool {
			return s.CancelAtPeriodEnd
		},
		next: cancelAt,
	},
	{
		from:  StatusPastDue,
		guard: graceElapsed,
		next: func(s *Subscription, _ time.Time, _ Policy) (State, OutcomeKind) {
			return Suspended{PastDueSince: copyTime(s.PastDueSince)}, OutcomeSuspended
		},
	},
}

// Renew evaluates the renewal table against s at asOf and applies the matching
// transition in place. It performs no I/O. SUSPENDED and CANCELLED rows, and rows
// that are not yet due, are left untouched with OutcomeNone.
func Renew(s *Subscription, asOf time.Time, p Policy) Outcome {
	out := Outcome{Kind: OutcomeNone, From: s.Status, To: s.Status}
	for _, r := range renewalRules {
		if r.from != s.Status || !r.guard(s, asOf) {
			continue
		}
		st, kind := r.next(s, asOf, p)
		s.Apply(st)
		out.Kind = kind
		out.To = s.Status
		return out
	}
	return out
}

func cancelAt(_ *Subscription, asOf time.Time, _ Policy) (State, OutcomeKind) {
	return Cancelled{At: asOf}, OutcomeCancelled
}

func trialEnded(s *Subscription, asOf time.Time) bool {
	return s.TrialEndsAt != nil && !s.TrialEndsAt.After(asOf)
}

func periodElapsed(s *Subscription, asOf time.Time) bool {
	return s.CurrentPeriodEnd != nil && !s.CurrentPeriodEnd.After(asOf)
}

// A payment counts for renewal only when it happened after the period started.
func paymentObserved(s *Subscription) bool {
	return s.LastPaymentAt != nil && s.CurrentPeriodStart != nil && s.LastPaymentAt.After(*s.CurrentPeriodStart)
}

func graceElapsed(s *Subscription, asOf time.Time) bool {
	if s.NextRenewalAt != nil {
		return !s.NextRenewalAt.After(asOf)
	}
	return s.PastDueSince != nil
}
