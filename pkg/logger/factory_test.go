package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbion/subledger/pkg/logger"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json by default", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf)).Info("hello")

		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("text formatter", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf), logger.WithTextFormatter()).Info("hello")
		assert.Contains(t, buf.String(), "level=INFO")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevelName("warn"))
		log.Info("dropped")
		assert.Zero(t, buf.Len())
		log.Warn("kept")
		assert.Equal(t, "kept", decode(t, buf)["msg"])
	})

	t.Run("unknown level name keeps default", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf), logger.WithLevelName("loud")).Info("kept")
		assert.Equal(t, "kept", decode(t, buf)["msg"])
	})

	t.Run("static attributes", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf), logger.WithAttr(slog.String("svc", "test"))).Info("msg")
		assert.Equal(t, "test", decode(t, buf)["svc"])
	})

	t.Run("production environment", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithEnvironment("prod", "subledgerd"))
		log.Debug("dropped")
		log.Info("msg")

		entry := decode(t, buf)
		assert.Equal(t, "subledgerd", entry["service"])
		assert.Equal(t, logger.EnvProduction, entry["env"])
	})

	t.Run("development environment logs text at debug", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf), logger.WithEnvironment("", "subledgerd")).Debug("msg")
		assert.Contains(t, buf.String(), "level=DEBUG")
		assert.Contains(t, buf.String(), "env="+logger.EnvDevelopment)
	})

	t.Run("ids from context", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithContextExtractors(logger.TenantExtractor(), logger.SubscriptionExtractor(), nil),
		)
		tenant, sub := uuid.New(), uuid.New()
		ctx := logger.WithSubscription(logger.WithTenant(context.Background(), tenant), sub)
		log.With(slog.String("k", "v")).InfoContext(ctx, "msg")

		entry := decode(t, buf)
		assert.Equal(t, tenant.String(), entry["tenant_id"])
		assert.Equal(t, sub.String(), entry["subscription_id"])
		assert.Equal(t, "v", entry["k"])
	})

	t.Run("no ids without context values", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithContextExtractors(logger.TenantExtractor()))
		log.InfoContext(context.Background(), "msg")
		assert.NotContains(t, decode(t, buf), "tenant_id")
	})
}

func TestWithFormatPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		logger.New(logger.WithFormat(logger.Format("xml")))
	})
}
