// Package enforcement decides whether a metered action may proceed.
//
// Decide is pure over an entitlements snapshot and never re-reads usage, so
// callers resolve a fresh snapshot for every decision. Rules, first match wins:
//
//  1. module not enabled → block
//  2. limit ≤ 0 → allow (no cap)
//  3. used + delta > limit → block
//  4. used + delta > soft threshold × limit → warn
//  5. otherwise → allow
//
// Reaching the soft threshold exactly is still allowed.
package enforcement
