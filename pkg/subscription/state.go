package subscription

import (
	"time"

	"github.com/orbion/subledger/pkg/period"
)

// State is the lifecycle state of a subscription with the data each status owns.
// Transitions are expressed by applying a State to a row, never by editing
// nullable columns one by one.
type State interface {
	Status() Status
	applyTo(s *Subscription)
}

// Trial is a free evaluation window ending at EndsAt.
type Trial struct {
	EndsAt time.Time
}

// Active is a paid subscription inside its current billing period.
type Active struct {
	Period            period.Window
	LastPaymentAt     *time.Time
	CancelAtPeriodEnd bool
}

// PastDue keeps the elapsed period while waiting for a late payment until GraceEndsAt.
type PastDue struct {
	Period            period.Window
	Since             time.Time
	GraceEndsAt       time.Time
	LastPaymentAt     *time.Time
	CancelAtPeriodEnd bool
}

// Suspended blocks access until an external reactivation. PastDueSince is
// carried over only from a PAST_DUE row.
type Suspended struct {
	PastDueSince *time.Time
}

// Cancelled is terminal.
type Cancelled struct {
	At time.Time
}

func (Trial) Status() Status     { return StatusTrial }
func (Active) Status() Status    { return StatusActive }
func (PastDue) Status() Status   { return StatusPastDue }
func (Suspended) Status() Status { return StatusSuspended }
func (Cancelled) Status() Status { return StatusCancelled }

func (st Trial) applyTo(s *Subscription) {
	s.Status = StatusTrial
	s.TrialEndsAt = timePtr(st.EndsAt)
	s.CurrentPeriodStart = nil
	s.CurrentPeriodEnd = nil
	s.NextRenewalAt = nil
	s.LastPaymentAt = nil
	s.PastDueSince = nil
	s.CancelledAt = nil
}

func (st Active) applyTo(s *Subscription) {
	s.Status = StatusActive
	s.TrialEndsAt = nil
	s.CurrentPeriodStart = timePtr(st.Period.Start)
	s.CurrentPeriodEnd = timePtr(st.Period.End)
	s.NextRenewalAt = timePtr(st.Period.End)
	s.LastPaymentAt = copyTime(st.LastPaymentAt)
	s.PastDueSince = nil
	s.CancelAtPeriodEnd = st.CancelAtPeriodEnd
	s.CancelledAt = nil
}

func (st PastDue) applyTo(s *Subscription) {
	s.Status = StatusPastDue
	s.TrialEndsAt = nil
	s.CurrentPeriodStart = timePtr(st.Period.Start)
	s.CurrentPeriodEnd = timePtr(st.Period.End)
	s.NextRenewalAt = timePtr(st.GraceEndsAt)
	s.LastPaymentAt = copyTime(st.LastPaymentAt)
	s.PastDueSince = timePtr(st.Since)
	s.CancelAtPeriodEnd = st.CancelAtPeriodEnd
	s.CancelledAt = nil
}

// Suspended and Cancelled keep the historical period, trial and payment columns.
func (st Suspended) applyTo(s *Subscription) {
	s.Status = StatusSuspended
	s.NextRenewalAt = nil
	s.PastDueSince = copyTime(st.PastDueSince)
	s.CancelledAt = nil
}

func (st Cancelled) applyTo(s *Subscription) {
	s.Status = StatusCancelled
	s.NextRenewalAt = nil
	s.CancelledAt = timePtr(st.At)
}

// State returns the tagged view of the row. Rows with an unknown status are
// reported as Cancelled so callers never grant access by accident.
func (s *Subscription) State() State {
	switch s.Status {
	case StatusTrial:
		return Trial{EndsAt: deref(s.TrialEndsAt)}
	case StatusActive:
		return Active{
			Period:            s.period(),
			LastPaymentAt:     copyTime(s.LastPaymentAt),
			CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		}
	case StatusPastDue:
		return PastDue{
			Period:            s.period(),
			Since:             deref(s.PastDueSince),
			GraceEndsAt:       deref(s.NextRenewalAt),
			LastPaymentAt:     copyTime(s.LastPaymentAt),
			CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		}
	case StatusSuspended:
		return Suspended{PastDueSince: copyTime(s.PastDueSince)}
	default:
		return Cancelled{At: deref(s.CancelledAt)}
	}
}

// Apply moves the row into st.
func (s *Subscription) Apply(st State) {
	st.applyTo(s)
}

func (s *Subscription) period() period.Window {
	return period.Window{Start: deref(s.CurrentPeriodStart), End: deref(s.CurrentPeriodEnd)}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
