// Package logger builds the slog.Logger used across subledger.
//
// New takes functional options for format, level, output and static
// attributes. WithEnvironment picks development or production defaults.
// Records pass through ContextHandler, which adds attributes pulled from
// the context: WithTenant and WithSubscription mark a unit of work, and
// TenantExtractor and SubscriptionExtractor put the ids on every record logged
// under it.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "subledgerd"),
//		logger.WithContextExtractors(logger.TenantExtractor(), logger.SubscriptionExtractor()),
//	)
//	logger.SetAsDefault(log)
//
// Attribute helpers (TenantID, SubscriptionID, Module, Error, ...) keep key
// names consistent between packages.
package logger
