// Package events defines the Sink capability through which the subscription
// lifecycle and the renewal scheduler report what they did.
//
// Components receive a Sink at construction instead of writing to global
// logging or metrics state, so tests can assert on emitted events with a
// Recorder while production wires a LogSink, a MetricsSink and a persistent
// audit sink together with Multi.
//
//	rec := events.NewRecorder()
//	svc := subscription.NewService(store, subscription.WithEventSink(rec))
//	...
//	assert.Len(t, rec.OfType(events.TypeCancelled), 1)
package events
