// Package pg bootstraps the PostgreSQL layer on top of pgx/v5: connection pool
// with retry, goose migrations, health checks and error classifiers.
//
// Config is populated from PG_* environment variables. Migrations run from a
// directory on disk when PG_MIGRATIONS_PATH is set, otherwise from an embedded
// filesystem supplied by the caller:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.MigrateFS(ctx, pool, pgstore.Migrations, cfg, logger); err != nil {
//		return err
//	}
//
//	caps, err := pg.DetectCapabilities(ctx, pool)
//
// Error helpers classify driver errors so stores can map them onto domain
// sentinels:
//
//   - IsNotFoundError: no rows
//   - IsDuplicateKeyError: unique violation (23505)
//   - IsLockNotAvailableError: NOWAIT lock failure (55P03)
//   - IsSerializationError: serialization failure or deadlock (40001, 40P01)
package pg
