package renewal

import "github.com/google/uuid"

// Result summarizes one renewal batch.
type Result struct {
	Checked   int
	Renewed   int
	Cancelled int
	PastDue   int
	Suspended int
	// Skipped counts claimed rows that needed no transition.
	Skipped int
	// Locked counts rows held by another worker.
	Locked int
	Errors int

	// SubscriptionIDs lists the rows that were transitioned.
	SubscriptionIDs []uuid.UUID
}

// Transitioned returns the number of rows whose state changed.
func (r Result) Transitioned() int {
	return r.Renewed + r.Cancelled + r.PastDue + r.Suspended
}

// Stats returns the counters keyed by name.
func (r Result) Stats() map[string]int {
	return map[string]int{
		"checked":   r.Checked,
		"renewed":   r.Renewed,
		"cancelled": r.Cancelled,
		"past_due":  r.PastDue,
		"suspended": r.Suspended,
		"skipped":   r.Skipped,
		"locked":    r.Locked,
		"errors":    r.Errors,
	}
}
