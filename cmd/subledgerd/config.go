package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/orbion/subledger/pkg/logger"
)

// Backends for subscription and usage storage.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config is the daemon configuration, read from SUBLEDGER_* variables.
type Config struct {
	Env       string `env:"SUBLEDGER_ENV" envDefault:"development"`
	LogLevel  string `env:"SUBLEDGER_LOG_LEVEL"`
	LogFormat string `env:"SUBLEDGER_LOG_FORMAT"`

	// Store holds subscriptions and tenant plans: postgres or memory.
	Store             string `env:"SUBLEDGER_STORE" envDefault:"postgres"`
	// Ledger holds usage counters: postgres, redis or memory.
	Ledger            string `env:"SUBLEDGER_LEDGER" envDefault:"postgres"`
	LedgerMaxAttempts int    `env:"SUBLEDGER_LEDGER_MAX_ATTEMPTS" envDefault:"3"`
	// SkipLocked overrides the detected server capability: auto, true or false.
	SkipLocked        string `env:"SUBLEDGER_SKIP_LOCKED" envDefault:"auto"`

	PlansFile string `env:"SUBLEDGER_PLANS_FILE"`

	RenewalEnabled    bool          `env:"SUBLEDGER_RENEWAL_ENABLED" envDefault:"true"`
	RenewalInterval   time.Duration `env:"SUBLEDGER_RENEWAL_INTERVAL" envDefault:"1m"`
	RenewalBatchLimit int           `env:"SUBLEDGER_RENEWAL_BATCH_LIMIT" envDefault:"100"`

	GracePeriod      time.Duration `env:"SUBLEDGER_GRACE_PERIOD" envDefault:"168h"`
	TrialDays        int           `env:"SUBLEDGER_TRIAL_DAYS" envDefault:"14"`
	PeriodLengthDays int           `env:"SUBLEDGER_PERIOD_LENGTH_DAYS" envDefault:"30"`
	SoftThreshold    float64       `env:"SUBLEDGER_SOFT_THRESHOLD" envDefault:"0.8"`
}

// Validate is called by config.Load before the struct is cached.
func (c Config) Validate() error {
	var errs []error
	switch c.Store {
	case BackendPostgres, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("SUBLEDGER_STORE: unknown backend %q", c.Store))
	}
	switch c.Ledger {
	case BackendPostgres, BackendRedis, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("SUBLEDGER_LEDGER: unknown backend %q", c.Ledger))
	}
	switch c.LogFormat {
	case "", string(logger.FormatJSON), string(logger.FormatText):
	default:
		errs = append(errs, fmt.Errorf("SUBLEDGER_LOG_FORMAT: want json or text, got %q", c.LogFormat))
	}
	switch c.SkipLocked {
	case "auto", "true", "false":
	default:
		errs = append(errs, fmt.Errorf("SUBLEDGER_SKIP_LOCKED: want auto, true or false, got %q", c.SkipLocked))
	}
	if c.RenewalInterval <= 0 {
		errs = append(errs, errors.New("SUBLEDGER_RENEWAL_INTERVAL must be positive"))
	}
	if c.RenewalBatchLimit <= 0 {
		errs = append(errs, errors.New("SUBLEDGER_RENEWAL_BATCH_LIMIT must be positive"))
	}
	if c.GracePeriod < 0 {
		errs = append(errs, errors.New("SUBLEDGER_GRACE_PERIOD must not be negative"))
	}
	if c.TrialDays <= 0 || c.PeriodLengthDays <= 0 {
		errs = append(errs, errors.New("SUBLEDGER_TRIAL_DAYS and SUBLEDGER_PERIOD_LENGTH_DAYS must be positive"))
	}
	if c.SoftThreshold <= 0 || c.SoftThreshold > 1 {
		errs = append(errs, fmt.Errorf("SUBLEDGER_SOFT_THRESHOLD must be in (0, 1], got %v", c.SoftThreshold))
	}
	return errors.Join(errs...)
}

// needsPostgres reports whether any component is stored in Postgres.
func (c Config) needsPostgres() bool {
	return c.Store == BackendPostgres || c.Ledger == BackendPostgres
}
