// Package config loads typed configuration from environment variables.
//
// Structs are annotated with github.com/caarlos0/env tags; a .env file in the
// working directory is applied once through github.com/joho/godotenv. Parsed
// structs are cached per type and prefix, so components can call Load freely.
// A struct with a Validate() error method is checked before it is cached.
//
//	type Config struct {
//		RenewalInterval time.Duration `env:"SUBLEDGER_RENEWAL_INTERVAL" envDefault:"1m"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
package config
