package subledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/orbion/subledger/pkg/enforcement"
	"github.com/orbion/subledger/pkg/entitlements"
	"github.com/orbion/subledger/pkg/logger"
	"github.com/orbion/subledger/pkg/renewal"
	"github.com/orbion/subledger/pkg/subscription"
	"github.com/orbion/subledger/pkg/usage"
)

// Usage is the pair of counters after RecordUsage.
type Usage struct {
	Operational int64
	Billable    int64
}

// Engine composes the subledger components.
type Engine struct {
	subs      *subscription.Service
	ledger    *usage.Ledger
	resolver  *entitlements.Resolver
	enforcer  *enforcement.Engine
	scheduler *renewal.Scheduler
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine. Panics if any component is nil.
func New(
	subs *subscription.Service,
	ledger *usage.Ledger,
	resolver *entitlements.Resolver,
	enforcer *enforcement.Engine,
	scheduler *renewal.Scheduler,
	opts ...Option,
) *Engine {
	switch {
	case subs == nil:
		panic("subledger: subscription service is required")
	case ledger == nil:
		panic("subledger: usage ledger is required")
	case resolver == nil:
		panic("subledger: entitlements resolver is required")
	case enforcer == nil:
		panic("subledger: enforcement engine is required")
	case scheduler == nil:
		panic("subledger: renewal scheduler is required")
	}

	e := &Engine{
		subs:      subs,
		ledger:    ledger,
		resolver:  resolver,
		enforcer:  enforcer,
		scheduler: scheduler,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Subscriptions() *subscription.Service { return e.subs }

func (e *Engine) Ledger() *usage.Ledger { return e.ledger }

// OnPaymentConfirmed applies the external payment signal to the tenant's
// module subscription.
func (e *Engine) OnPaymentConfirmed(ctx context.Context, tenantID uuid.UUID, module subscription.Module, asOf time.Time) (*subscription.Subscription, error) {
	ctx = logger.WithTenant(ctx, tenantID)
	sub, err := e.subs.PaymentConfirmed(ctx, tenantID, module, asOf)
	if err != nil {
		e.logger.WarnContext(ctx, "payment signal rejected",
			logger.Module(string(module)),
			logger.Error(err),
		)
		return nil, err
	}
	return sub, nil
}

// RecordUsage counts one action as operational and billable usage of the
// period that covers asOf. Non-positive deltas change nothing and return the
// current values.
func (e *Engine) RecordUsage(ctx context.Context, tenantID uuid.UUID, module subscription.Module, metricKey string, asOf time.Time, delta int64) (Usage, error) {
	if !module.Valid() {
		return Usage{}, fmt.Errorf("%w: %q", subscription.ErrInvalidModule, module)
	}
	ctx = logger.WithTenant(ctx, tenantID)

	op, bill, err := e.ledger.IncrementBoth(ctx, tenantID, string(module), metricKey, asOf, delta)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to record usage",
			logger.Module(string(module)),
			logger.Metric(metricKey),
			logger.Error(err),
		)
		return Usage{Operational: op}, err
	}
	return Usage{Operational: op, Billable: bill}, nil
}

// Snapshot resolves the tenant's entitlements at asOf.
func (e *Engine) Snapshot(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*entitlements.Snapshot, error) {
	return e.resolver.Snapshot(logger.WithTenant(ctx, tenantID), tenantID, asOf)
}

// Check resolves a fresh snapshot and decides whether delta more of metricKey
// may be used. Snapshots are never cached between calls.
func (e *Engine) Check(ctx context.Context, tenantID uuid.UUID, module subscription.Module, metricKey string, delta int64, asOf time.Time) (enforcement.Decision, error) {
	ctx = logger.WithTenant(ctx, tenantID)
	snap, err := e.resolver.Snapshot(ctx, tenantID, asOf)
	if err != nil {
		return enforcement.Decision{}, err
	}

	d := e.enforcer.Decide(snap, module, metricKey, delta)
	if d.Verdict != enforcement.Allow {
		e.logger.InfoContext(ctx, "usage check",
			logger.Module(string(module)),
			logger.Metric(metricKey),
			slog.String("verdict", string(d.Verdict)),
			slog.String("reason", string(d.Reason)),
			slog.Int64("used", d.Used),
			slog.Int64("limit", d.Limit),
		)
	}
	return d, nil
}

// RunRenewalBatch processes up to limit due subscriptions at now.
func (e *Engine) RunRenewalBatch(ctx context.Context, now time.Time, limit int) (renewal.Result, error) {
	return e.scheduler.RunBatch(ctx, now, limit)
}
