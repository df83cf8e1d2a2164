package subscription

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/orbion/subledger/pkg/period"
)

// Subscription is the storage row of a tenant's subscription to one module.
// Columns are flat and nullable for querying; transitions go through Apply.
type Subscription struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Module   Module
	Status   Status

	StartedAt          time.Time
	TrialEndsAt        *time.Time
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	NextRenewalAt      *time.Time
	LastPaymentAt      *time.Time
	PastDueSince       *time.Time

	CancelAtPeriodEnd bool
	CancelledAt       *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTrialing returns true if the subscription is in trial status.
func (s *Subscription) IsTrialing() bool {
	return s.Status == StatusTrial
}

// IsActive returns true if the subscription is active (paid).
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// IsCancelled returns true if the subscription is cancelled.
func (s *Subscription) IsCancelled() bool {
	return s.Status == StatusCancelled
}

// Enabled reports whether the subscription currently grants access to its module.
func (s *Subscription) Enabled() bool {
	return s.Status.Enabled()
}

// TrialDaysRemainingAt returns the number of days remaining in the trial at a given time.
// Partial days round up. Returns 0 if not in trial or trial has expired.
func (s *Subscription) TrialDaysRemainingAt(now time.Time) int {
	if !s.IsTrialing() || s.TrialEndsAt == nil {
		return 0
	}

	remaining := s.TrialEndsAt.Sub(now)
	if remaining <= 0 {
		return 0
	}

	return int(math.Ceil(remaining.Hours() / 24))
}

// ActiveWindow returns the interval the subscription currently covers: the trial
// window for TRIAL rows, the billing period otherwise. The second result is false
// when the row carries neither.
func (s *Subscription) ActiveWindow() (period.Window, bool) {
	if s.Status == StatusTrial && s.TrialEndsAt != nil {
		w := period.Window{Start: s.StartedAt, End: *s.TrialEndsAt}
		return w, w.Valid()
	}
	if s.CurrentPeriodStart != nil && s.CurrentPeriodEnd != nil {
		w := s.period()
		return w, w.Valid()
	}
	return period.Window{}, false
}

// DueAt returns the instant the renewal job should next look at the row.
// Trials have no renewal date and are due when the trial ends.
func (s *Subscription) DueAt() (time.Time, bool) {
	switch {
	case s.Status == StatusCancelled || s.Status == StatusSuspended:
		return time.Time{}, false
	case s.NextRenewalAt != nil:
		return *s.NextRenewalAt, true
	case s.Status == StatusTrial && s.TrialEndsAt != nil:
		return *s.TrialEndsAt, true
	}
	return time.Time{}, false
}

// Validate checks the row invariants. Stores call it before every write.
func (s *Subscription) Validate() error {
	var errs []error

	if s.TenantID == uuid.Nil {
		errs = append(errs, ErrMissingTenantID)
	}
	if !s.Module.Valid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidModule, s.Module))
	}
	if !s.Status.Valid() {
		errs = append(errs, fmt.Errorf("unknown status %q", s.Status))
	}
	if (s.CurrentPeriodStart == nil) != (s.CurrentPeriodEnd == nil) {
		errs = append(errs, errors.New("current period bounds must be set together"))
	}
	if s.CurrentPeriodStart != nil && s.CurrentPeriodEnd != nil && !s.CurrentPeriodEnd.After(*s.CurrentPeriodStart) {
		errs = append(errs, errors.New("current period end must be after its start"))
	}
	if s.TrialEndsAt != nil && s.CurrentPeriodStart != nil {
		errs = append(errs, errors.New("trial end and current period are mutually exclusive"))
	}

	switch s.Status {
	case StatusTrial:
		if s.TrialEndsAt == nil {
			errs = append(errs, errors.New("trial subscription requires a trial end"))
		}
		if s.CurrentPeriodStart != nil || s.NextRenewalAt != nil || s.LastPaymentAt != nil {
			errs = append(errs, errors.New("trial subscription must not carry period, renewal or payment data"))
		}
	case StatusActive, StatusPastDue:
		if s.CurrentPeriodStart == nil {
			errs = append(errs, fmt.Errorf("%s subscription requires a current period", s.Status))
		}
		if s.TrialEndsAt != nil {
			errs = append(errs, fmt.Errorf("%s subscription must not carry a trial end", s.Status))
		}
		if s.Status == StatusPastDue && s.PastDueSince == nil {
			errs = append(errs, errors.New("past due subscription requires past due since"))
		}
	case StatusCancelled:
		if s.NextRenewalAt != nil {
			errs = append(errs, errors.New("cancelled subscription must not have a renewal date"))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvariantViolation}, errs...)...)
}

// Clone returns a deep copy of the row.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	c := *s
	c.TrialEndsAt = copyTime(s.TrialEndsAt)
	c.CurrentPeriodStart = copyTime(s.CurrentPeriodStart)
	c.CurrentPeriodEnd = copyTime(s.CurrentPeriodEnd)
	c.NextRenewalAt = copyTime(s.NextRenewalAt)
	c.LastPaymentAt = copyTime(s.LastPaymentAt)
	c.PastDueSince = copyTime(s.PastDueSince)
	c.CancelledAt = copyTime(s.CancelledAt)
	return &c
}
