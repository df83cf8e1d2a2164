package events_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbion/subledger/pkg/events"
)

func TestRecorder(t *testing.T) {
	t.Parallel()

	t.Run("records concurrently emitted events", func(t *testing.T) {
		t.Parallel()
		rec := events.NewRecorder()

		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec.Emit(context.Background(), events.Event{Type: events.TypeRenewed})
			}()
		}
		wg.Wait()

		assert.Len(t, rec.Events(), 50)
		assert.Len(t, rec.OfType(events.TypeRenewed), 50)
		assert.Empty(t, rec.OfType(events.TypeCancelled))
	})

	t.Run("reset drops events", func(t *testing.T) {
		t.Parallel()
		rec := events.NewRecorder()
		rec.Emit(context.Background(), events.Event{Type: events.TypePaid})
		rec.Reset()
		assert.Empty(t, rec.Events())
	})
}

func TestMulti(t *testing.T) {
	t.Parallel()

	a, b := events.NewRecorder(), events.NewRecorder()
	sink := events.Multi(a, nil, b)
	sink.Emit(context.Background(), events.Event{Type: events.TypeSuspended})

	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}

func TestLogSink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sink := events.NewLogSink(logger)

	sink.Emit(context.Background(), events.Event{
		Type:           events.TypeRenewalFailed,
		SubscriptionID: uuid.New(),
		TenantID:       uuid.New(),
		Module:         "inbound",
		At:             time.Now().UTC(),
		Err:            errors.New("boom"),
	})

	out := buf.String()
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"event":"renewal.failed"`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, `"module":"inbound"`)
}

func TestMetricsSink(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink := events.NewMetricsSink(reg)

	sink.Emit(context.Background(), events.Event{Type: events.TypeCancelled, Module: "wms"})
	sink.Emit(context.Background(), events.Event{Type: events.TypeCancelled, Module: "wms"})
	sink.Emit(context.Background(), events.Event{
		Type:  events.TypeBatchCompleted,
		Stats: map[string]int{"checked": 4, "errors": 1},
	})

	counter, gauge := sink.Collectors()
	assert.Equal(t, float64(2), testutil.ToFloat64(counter.WithLabelValues(string(events.TypeCancelled), "wms")))
	assert.Equal(t, float64(4), testutil.ToFloat64(gauge.WithLabelValues("checked")))
	assert.Equal(t, float64(1), testutil.ToFloat64(gauge.WithLabelValues("errors")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
