package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Validator is implemented by config structs that check themselves after parsing.
type Validator interface {
	Validate() error
}

// Option adjusts how a struct is read from the environment.
type Option func(*options)

type options struct {
	prefix string
}

// WithPrefix prepends prefix to every env tag of the struct, so one struct type
// can be loaded for several components.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

type cacheKey struct {
	typ    reflect.Type
	prefix string
}

var (
	cacheMu sync.RWMutex
	cache   = make(map[cacheKey]any)

	dotenvOnce sync.Once
)

// Load parses environment variables into v. A .env file in the working
// directory is read once on first use; variables already set take precedence.
//
// Each (type, prefix) pair is parsed once per process and served from a cache
// afterwards. Structs implementing Validator are validated before caching.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}
	dotenvOnce.Do(func() {
		// A missing .env file is normal outside development.
		_ = godotenv.Load()
	})

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	key := cacheKey{typ: reflect.TypeFor[T](), prefix: o.prefix}

	cacheMu.RLock()
	cached, ok := cache[key]
	cacheMu.RUnlock()
	if ok {
		*v = cached.(T)
		return nil
	}

	var parsed T
	if err := env.ParseWithOptions(&parsed, env.Options{Prefix: o.prefix}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	if val, ok := any(&parsed).(Validator); ok {
		if err := val.Validate(); err != nil {
			return errors.Join(ErrInvalidConfig, err)
		}
	}

	cacheMu.Lock()
	if existing, ok := cache[key]; ok {
		parsed = existing.(T)
	} else {
		cache[key] = parsed
	}
	cacheMu.Unlock()

	*v = parsed
	return nil
}

// MustLoad is Load for configuration the process cannot start without.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// LoadEnv reads the named env files into the process environment without
// overriding variables that are already set. Call it before the first Load.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// ResetCache drops every cached config so the next Load parses again.
func ResetCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	clear(cache)
}
