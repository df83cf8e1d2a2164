// Package subledger wires the subscription lifecycle, the usage ledger, the
// entitlements resolver and the enforcement engine into one entry point for
// the code that sits around them.
//
// The surrounding system feeds three signals in:
//
//   - OnPaymentConfirmed when a payment for a tenant's module clears.
//   - RecordUsage once per counted action, which adds to both the operational
//     and the billable counter of the current period.
//   - RunRenewalBatch from a scheduler, or renewal.Runner in-process.
//
// And reads two views out:
//
//   - Snapshot renders a tenant's plan, status and usage.
//   - Check resolves a fresh snapshot and decides whether a write may proceed.
//
// Packages under pkg/ can be used on their own; Engine only composes them.
//
//	subs := subscription.NewService(store)
//	ledger := usage.NewLedger(usage.NewMemoryStore(),
//		usage.WithPeriodResolver(subledger.SubscriptionPeriods(subs, nil)),
//	)
//	resolver := entitlements.NewResolver(subs, ledger,
//		entitlements.NewInMemCatalog(entitlements.DefaultPlans()),
//		entitlements.NewInMemDirectory(),
//	)
//	engine := subledger.New(subs, ledger, resolver,
//		enforcement.NewEngine(enforcement.DefaultSoftThreshold),
//		renewal.NewScheduler(subs),
//	)
//
//	d, err := engine.Check(ctx, tenantID, subscription.ModuleInbound, "recepciones_mes", 1, time.Now())
//	if err != nil {
//		return err
//	}
//	if err := d.Err(); err != nil {
//		return err // limit reached or module disabled
//	}
package subledger
