package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/orbion/subledger"
	"github.com/orbion/subledger/pkg/config"
	"github.com/orbion/subledger/pkg/enforcement"
	"github.com/orbion/subledger/pkg/entitlements"
	"github.com/orbion/subledger/pkg/events"
	"github.com/orbion/subledger/pkg/httpserver"
	"github.com/orbion/subledger/pkg/pg"
	"github.com/orbion/subledger/pkg/pgstore"
	"github.com/orbion/subledger/pkg/redis"
	"github.com/orbion/subledger/pkg/renewal"
	"github.com/orbion/subledger/pkg/subscription"
	"github.com/orbion/subledger/pkg/usage"
)

// app holds the wired components and the resources to release on exit.
type app struct {
	engine   *subledger.Engine
	runner   *renewal.Runner
	registry *prometheus.Registry
	checks   map[string]httpserver.Check
	closers  []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// build connects the configured backends and assembles the engine. On error
// everything opened so far is closed.
func build(ctx context.Context, cfg Config, log *slog.Logger) (_ *app, err error) {
	a := &app{
		registry: prometheus.NewRegistry(),
		checks:   make(map[string]httpserver.Check),
	}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var pool *pgxpool.Pool
	var caps pg.Capabilities
	if cfg.needsPostgres() {
		if pool, caps, err = connectPostgres(ctx, cfg, log); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		a.checks["postgres"] = pg.Healthcheck(pool)
	}

	sinks := []events.Sink{events.NewLogSink(log), events.NewMetricsSink(a.registry)}
	if cfg.Store == BackendPostgres {
		sinks = append(sinks, pgstore.NewEventSink(pool, log))
	}
	sink := events.Multi(sinks...)

	var store subscription.Store = subscription.NewMemoryStore()
	var directory entitlements.TenantDirectory = entitlements.NewInMemDirectory()
	if cfg.Store == BackendPostgres {
		store = pgstore.NewSubscriptionStore(pool, caps)
		directory = pgstore.NewTenantDirectory(pool)
	}

	subs := subscription.NewService(store,
		subscription.WithEventSink(sink),
		subscription.WithGracePeriod(cfg.GracePeriod),
		subscription.WithTrialDays(cfg.TrialDays),
		subscription.WithPeriodLengthDays(cfg.PeriodLengthDays),
		subscription.WithLogger(log),
	)

	counters, err := usageStore(ctx, cfg, pool, a)
	if err != nil {
		return nil, err
	}
	ledger := usage.NewLedger(counters,
		usage.WithMaxAttempts(cfg.LedgerMaxAttempts),
		usage.WithPeriodResolver(subledger.SubscriptionPeriods(subs,
			usage.FixedPeriods(time.Unix(0, 0).UTC(), cfg.PeriodLengthDays))),
		usage.WithLogger(log),
	)

	catalog := entitlements.NewInMemCatalog(entitlements.DefaultPlans())
	if cfg.PlansFile != "" {
		catalog = entitlements.NewYAMLCatalog(cfg.PlansFile)
		if _, err := catalog.Load(ctx); err != nil {
			return nil, err
		}
	}
	a.checks["plans"] = func(ctx context.Context) error {
		_, err := catalog.Load(ctx)
		return err
	}

	scheduler := renewal.NewScheduler(subs,
		renewal.WithEventSink(sink),
		renewal.WithLogger(log),
	)
	a.engine = subledger.New(subs, ledger,
		entitlements.NewResolver(subs, ledger, catalog, directory),
		enforcement.NewEngine(cfg.SoftThreshold),
		scheduler,
		subledger.WithLogger(log),
	)
	a.runner = renewal.NewRunner(scheduler,
		renewal.WithInterval(cfg.RenewalInterval),
		renewal.WithBatchLimit(cfg.RenewalBatchLimit),
		renewal.WithRunnerLogger(log),
	)

	log.InfoContext(ctx, "subledger wired",
		slog.String("store", cfg.Store),
		slog.String("ledger", cfg.Ledger),
		slog.Bool("skip_locked", store.Capabilities().SupportsSkipLocked),
		slog.Float64("soft_threshold", cfg.SoftThreshold),
		slog.Duration("grace_period", cfg.GracePeriod),
	)
	return a, nil
}

func connectPostgres(ctx context.Context, cfg Config, log *slog.Logger) (*pgxpool.Pool, pg.Capabilities, error) {
	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return nil, pg.Capabilities{}, err
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return nil, pg.Capabilities{}, err
	}
	if err := pg.MigrateFS(ctx, pool, pgstore.Migrations, pgCfg, log); err != nil {
		pool.Close()
		return nil, pg.Capabilities{}, err
	}
	caps, err := pg.DetectCapabilities(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, pg.Capabilities{}, err
	}

	switch cfg.SkipLocked {
	case "true":
		caps.SupportsSkipLocked = true
	case "false":
		caps.SupportsSkipLocked = false
	}
	log.InfoContext(ctx, "postgres ready",
		slog.Int("server_version", caps.ServerVersion),
		slog.Bool("skip_locked", caps.SupportsSkipLocked),
	)
	return pool, caps, nil
}

func usageStore(ctx context.Context, cfg Config, pool *pgxpool.Pool, a *app) (usage.Store, error) {
	switch cfg.Ledger {
	case BackendPostgres:
		return pgstore.NewUsageStore(pool), nil
	case BackendRedis:
		var rCfg redis.Config
		if err := config.Load(&rCfg); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, rCfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.checks["redis"] = redis.Healthcheck(client)
		return usage.NewRedisStore(client,
			usage.WithKeyPrefix(rCfg.UsageKeyPrefix),
			usage.WithRetention(rCfg.UsageRetention),
		), nil
	default:
		return usage.NewMemoryStore(), nil
	}
}
