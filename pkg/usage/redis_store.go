package usage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/orbion/subledger/pkg/period"
)

const defaultRedisPrefix = "subledger:usage:"

// addExistingScript increments a counter only when it already exists.
var addExistingScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
return redis.call('INCRBY', KEYS[1], ARGV[1])
`)

// createScript sets a counter if absent and registers it in the period index.
// Returns 0 when the counter already exists.
var createScript = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call('SADD', KEYS[2], ARGV[2])
local expireAt = tonumber(ARGV[3])
if expireAt > 0 then
	redis.call('PEXPIREAT', KEYS[1], expireAt)
	redis.call('PEXPIREAT', KEYS[2], expireAt)
end
return 1
`)

// RedisStore keeps counters in Redis. Each counter is a plain integer key; a set
// per (tenant, module, type, period) indexes the metric keys for ListPeriod.
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix sets the namespace of every key. Default "subledger:usage:".
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRetention expires counters the given duration after their period ends.
// Zero keeps counters forever.
func WithRetention(d time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		if d >= 0 {
			s.retention = d
		}
	}
}

// NewRedisStore creates a Redis-backed Store.
// Panics if client is nil.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	if client == nil {
		panic("usage: redis client is required")
	}
	s := &RedisStore{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) AddExisting(ctx context.Context, scope Scope, delta int64) (int64, bool, error) {
	v, err := addExistingScript.Run(ctx, s.client, []string{s.counterKey(scope)}, delta).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("usage: redis add %s: %w", scope, err)
	}
	return v, true, nil
}

func (s *RedisStore) Create(ctx context.Context, scope Scope, value int64) error {
	var expireAt int64
	if s.retention > 0 {
		expireAt = scope.PeriodEnd.Add(s.retention).UnixMilli()
	}

	keys := []string{s.counterKey(scope), s.indexKey(scope.TenantID, scope.Module, scope.CounterType, scope.Window())}
	created, err := createScript.Run(ctx, s.client, keys, value, scope.MetricKey, expireAt).Int64()
	if err != nil {
		return fmt.Errorf("usage: redis create %s: %w", scope, err)
	}
	if created == 0 {
		return ErrCounterExists
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, scope Scope) (int64, bool, error) {
	v, err := s.client.Get(ctx, s.counterKey(scope)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("usage: redis get %s: %w", scope, err)
	}
	return v, true, nil
}

func (s *RedisStore) ListPeriod(ctx context.Context, tenantID uuid.UUID, module string, ct CounterType, w period.Window) (map[string]int64, error) {
	metrics, err := s.client.SMembers(ctx, s.indexKey(tenantID, module, ct, w)).Result()
	if err != nil {
		return nil, fmt.Errorf("usage: redis list period: %w", err)
	}
	out := make(map[string]int64, len(metrics))
	if len(metrics) == 0 {
		return out, nil
	}

	keys := make([]string, len(metrics))
	for i, metric := range metrics {
		keys[i] = s.counterKey(NewScope(tenantID, module, ct, metric, w))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("usage: redis list period: %w", err)
	}
	for i, raw := range values {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		v, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("usage: redis counter %q is not an integer: %w", keys[i], err)
		}
		out[metrics[i]] = v
	}
	return out, nil
}

func (s *RedisStore) counterKey(scope Scope) string {
	return fmt.Sprintf("%sc:%s:%s:%s:%d:%d:%s", s.prefix,
		scope.TenantID, scope.Module, scope.CounterType,
		scope.PeriodStart.UnixMilli(), scope.PeriodEnd.UnixMilli(), scope.MetricKey)
}

func (s *RedisStore) indexKey(tenantID uuid.UUID, module string, ct CounterType, w period.Window) string {
	return fmt.Sprintf("%si:%s:%s:%s:%d:%d", s.prefix,
		tenantID, module, ct, w.Start.UnixMilli(), w.End.UnixMilli())
}
