package events

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsSink counts events in Prometheus and exposes the counters of the most
// recent renewal batch as gauges.
type MetricsSink struct {
	events *prometheus.CounterVec
	batch  *prometheus.GaugeVec
}

// NewMetricsSink creates the collectors and registers them with reg.
// A nil reg registers nothing, which keeps tests free of global state.
func NewMetricsSink(reg prometheus.Registerer) *MetricsSink {
	s := &MetricsSink{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subledger",
			Name:      "subscription_events_total",
			Help:      "Subscription lifecycle events by type and module",
		}, []string{"type", "module"}),
		batch: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "subledger",
			Name:      "renewal_last_batch",
			Help:      "Counters reported by the most recent renewal batch",
		}, []string{"counter"}),
	}

	if reg != nil {
		reg.MustRegister(s.events, s.batch)
	}
	return s
}

func (s *MetricsSink) Emit(_ context.Context, e Event) {
	s.events.WithLabelValues(string(e.Type), e.Module).Inc()

	if e.Type == TypeBatchCompleted {
		for k, v := range e.Stats {
			s.batch.WithLabelValues(k).Set(float64(v))
		}
	}
}

// Collectors returns the underlying collectors, mainly for tests.
func (s *MetricsSink) Collectors() (*prometheus.CounterVec, *prometheus.GaugeVec) {
	return s.events, s.batch
}
