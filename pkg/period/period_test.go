package period_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/orbion/subledger/pkg/period"
)

func TestFor(t *testing.T) {
	t.Parallel()

	anchor := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		asOf       time.Time
		lengthDays int
		wantStart  time.Time
		wantEnd    time.Time
	}{
		{
			name:       "anchor itself opens the first period",
			asOf:       anchor,
			lengthDays: 30,
			wantStart:  anchor,
			wantEnd:    anchor.AddDate(0, 0, 30),
		},
		{
			name:       "inside first period",
			asOf:       anchor.Add(10 * 24 * time.Hour),
			lengthDays: 30,
			wantStart:  anchor,
			wantEnd:    anchor.AddDate(0, 0, 30),
		},
		{
			name:       "end is exclusive",
			asOf:       anchor.AddDate(0, 0, 30),
			lengthDays: 30,
			wantStart:  anchor.AddDate(0, 0, 30),
			wantEnd:    anchor.AddDate(0, 0, 60),
		},
		{
			name:       "several periods later",
			asOf:       anchor.AddDate(0, 0, 95),
			lengthDays: 30,
			wantStart:  anchor.AddDate(0, 0, 90),
			wantEnd:    anchor.AddDate(0, 0, 120),
		},
		{
			name:       "before anchor tiles backward",
			asOf:       anchor.Add(-time.Hour),
			lengthDays: 30,
			wantStart:  anchor.AddDate(0, 0, -30),
			wantEnd:    anchor,
		},
		{
			name:       "exactly one period before anchor",
			asOf:       anchor.AddDate(0, 0, -30),
			lengthDays: 30,
			wantStart:  anchor.AddDate(0, 0, -30),
			wantEnd:    anchor,
		},
		{
			name:       "non-positive length clamps to one day",
			asOf:       anchor.Add(36 * time.Hour),
			lengthDays: 0,
			wantStart:  anchor.AddDate(0, 0, 1),
			wantEnd:    anchor.AddDate(0, 0, 2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			start, end := period.For(anchor, tt.asOf, tt.lengthDays)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
			assert.True(t, end.After(start))
			assert.True(t, !tt.asOf.Before(start) && tt.asOf.Before(end))
		})
	}
}

func TestWindow(t *testing.T) {
	t.Parallel()

	anchor := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	w := period.Of(anchor, anchor.Add(time.Minute), 7)

	assert.True(t, w.Valid())
	assert.True(t, w.Contains(anchor))
	assert.False(t, w.Contains(w.End))
	assert.False(t, w.Contains(anchor.Add(-time.Nanosecond)))

	next := w.Next()
	assert.Equal(t, w.End, next.Start)
	assert.Equal(t, w.End.Sub(w.Start), next.End.Sub(next.Start))

	assert.True(t, period.Window{}.IsZero())
	assert.False(t, period.Window{}.Valid())
}
