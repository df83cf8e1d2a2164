// Package period computes the fixed-length billing windows shared by the usage
// ledger and the subscription lifecycle.
//
// Periods are half-open intervals [start, end) of lengthDays*24h that tile
// forward (and backward) from an anchor instant. The same arithmetic is used
// everywhere a "current period" is resolved, so a counter written by a request
// handler and a renewal performed by the scheduler always agree on which window
// an instant belongs to.
//
// Basic usage:
//
//	start, end := period.For(sub.StartedAt, time.Now().UTC(), period.DefaultLengthDays)
//
//	w := period.Of(anchor, asOf, 30)
//	if w.Contains(eventAt) {
//	    // count the event in this window
//	}
package period
