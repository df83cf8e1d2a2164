// Package redis connects the usage ledger's Redis backend.
//
// Connect parses a redis:// URL, pings the server with linear backoff and
// returns a go-redis client. Healthcheck adapts the client to the daemon's
// readiness probe. Config carries the REDIS_* variables, including the key
// prefix and retention handed to usage.RedisStore.
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := usage.NewRedisStore(client,
//		usage.WithKeyPrefix(cfg.UsageKeyPrefix),
//		usage.WithRetention(cfg.UsageRetention),
//	)
package redis
