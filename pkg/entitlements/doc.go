// Package entitlements builds read-only snapshots of what a tenant may do.
//
// A snapshot merges four sources for every module:
//
//   - the plan catalog: segment → module → metric → default limit
//   - tenant overrides from the TenantDirectory, which win when set
//   - the tenant's subscription, which decides whether the module is enabled
//     and which period usage is counted in
//   - billable and operational usage from the ledger over that period
//
// Snapshots are recomputed on every call and never written anywhere. Missing data
// is not an error: a module without a subscription is reported as "inactive" and
// a metric without a counter reads as zero.
//
// A limit of zero or less means unlimited; its Remaining entry is nil.
package entitlements
