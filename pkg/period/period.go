package period

import "time"

// DefaultLengthDays is the rolling "month" used when no length is configured.
const DefaultLengthDays = 30

const day = 24 * time.Hour

// Length returns the duration of a period of the given number of days.
// Values below one day are clamped to one day.
func Length(lengthDays int) time.Duration {
	if lengthDays < 1 {
		lengthDays = 1
	}
	return time.Duration(lengthDays) * day
}

// For returns the half-open period [start, end) that covers asOf, where periods
// of lengthDays tile from anchor in both directions.
func For(anchor, asOf time.Time, lengthDays int) (start, end time.Time) {
	size := Length(lengthDays)
	offset := asOf.Sub(anchor)

	n := offset / size
	// Integer division truncates toward zero; instants before the anchor
	// belong to the block that starts below them.
	if offset < 0 && offset%size != 0 {
		n--
	}

	start = anchor.Add(n * size)
	return start, start.Add(size)
}

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Of is the Window form of For.
func Of(anchor, asOf time.Time, lengthDays int) Window {
	start, end := For(anchor, asOf, lengthDays)
	return Window{Start: start, End: end}
}

// Valid reports whether the window is non-empty.
func (w Window) Valid() bool {
	return w.End.After(w.Start)
}

// Contains reports whether t falls inside [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Next returns the adjacent window of the same length.
func (w Window) Next() Window {
	size := w.End.Sub(w.Start)
	return Window{Start: w.End, End: w.End.Add(size)}
}

// IsZero reports whether both bounds are unset.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}
