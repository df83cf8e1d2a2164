// Command subledgerd runs the subscription renewal loop and serves health and
// metrics endpoints. Configuration comes from SUBLEDGER_*, PG_* and REDIS_*
// variables, optionally through a .env file.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/orbion/subledger/pkg/config"
	"github.com/orbion/subledger/pkg/httpserver"
	"github.com/orbion/subledger/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("subledgerd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return err
	}
	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return err
	}

	log := newLogger(cfg)
	logger.SetAsDefault(log)

	a, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		router := httpserver.NewOpsRouter(log, a.registry, httpCfg.CheckTimeout, a.checks)
		return httpserver.New(httpCfg, log).Run(ctx, router)
	})
	if cfg.RenewalEnabled {
		g.Go(func() error {
			if err := a.runner.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	err = g.Wait()
	log.Info("subledgerd shut down")
	return err
}

func newLogger(cfg Config) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, "subledgerd"),
		logger.WithContextExtractors(logger.TenantExtractor(), logger.SubscriptionExtractor()),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevelName(cfg.LogLevel))
	}
	if cfg.LogFormat != "" {
		opts = append(opts, logger.WithFormat(logger.Format(cfg.LogFormat)))
	}
	return logger.New(opts...)
}
