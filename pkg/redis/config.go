package redis

import "time"

// Config is read from REDIS_* variables. It is only needed when the usage
// ledger runs on Redis.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"` // ConnectionURL in the form redis://:password@host:6379/0.
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`             // RetryAttempts is the number of ping attempts before giving up.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`            // RetryInterval is the base wait between attempts; attempt n waits n times this.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`          // ConnectTimeout bounds the whole connect loop.

	UsageKeyPrefix string        `env:"REDIS_USAGE_KEY_PREFIX" envDefault:"subledger:usage:"` // UsageKeyPrefix namespaces usage counter keys.
	UsageRetention time.Duration `env:"REDIS_USAGE_RETENTION" envDefault:"2160h"`             // UsageRetention keeps counters this long past their period end; 0 keeps them forever.
}
