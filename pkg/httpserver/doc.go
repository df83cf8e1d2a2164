// Package httpserver serves the daemon's operational endpoints.
//
// NewOpsRouter builds a chi router with /healthz, /readyz and /metrics, and
// Server runs it until the context is cancelled, then shuts down gracefully.
// Domain operations are not exposed over HTTP.
package httpserver
