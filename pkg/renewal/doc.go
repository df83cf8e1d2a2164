// Package renewal drives due subscriptions through their renewal transitions.
//
// Scheduler.RunBatch selects up to limit due subscriptions, claims each row with a
// non-blocking lock and commits its transition on its own. A row another worker
// holds is skipped and picked up on a later run. A failure on one row, including a
// panic in the transition, is logged, counted and reported to the event sink
// without affecting the rest of the batch.
//
// Runner calls RunBatch on a fixed interval until its context is cancelled:
//
//	scheduler := renewal.NewScheduler(subs, renewal.WithEventSink(sink))
//	runner := renewal.NewRunner(scheduler,
//		renewal.WithInterval(time.Minute),
//		renewal.WithBatchLimit(500),
//	)
//	go runner.Start(ctx)
package renewal
