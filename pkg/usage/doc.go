// Package usage implements the per-tenant usage ledger: monotonic counters scoped
// by tenant, module, counter type, metric key and period.
//
// Increments are safe under any number of concurrent callers. The Ledger first
// tries an atomic add on the existing row, creates the row when none exists, and
// goes back to the add path when a concurrent creator wins the race. The retry
// budget is small and bounded; exhausting it returns ErrLedgerContention.
//
// Counters are created lazily on first increment and are never decremented. A new
// period gets a new row.
//
// Backends:
//
//   - MemoryStore: process-local map, for tests and single-node setups.
//   - RedisStore: Lua add-if-exists and create-if-absent scripts with a per-period
//     index set for listing.
//   - pgstore.UsageStore: UPDATE ... RETURNING with INSERT on a unique constraint.
//
// Usage:
//
//	ledger := usage.NewLedger(usage.NewRedisStore(client),
//		usage.WithPeriodResolver(resolver),
//	)
//
//	v, err := ledger.IncrementAt(ctx, tenantID, "inbound", usage.Billable, "recepciones_mes", time.Now(), 1)
//	if errors.Is(err, usage.ErrLedgerContention) {
//		// pathological contention, caller may retry the whole increment
//	}
package usage
