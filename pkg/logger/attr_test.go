package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbion/subledger/pkg/logger"
)

func TestErrors(t *testing.T) {
	t.Parallel()

	attr := logger.Errors(errors.New("first"), nil, errors.New("second"))
	require.Equal(t, "errors", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "0", g[0].Key)
	assert.Equal(t, "2", g[1].Key)

	assert.True(t, logger.Errors(nil, nil).Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	t.Parallel()

	attr := logger.Error(errors.New("boom"))
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, "boom", attr.Value.String())
	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestDomainAttrs(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	assert.Equal(t, "tenant_id", logger.TenantID(id).Key)
	assert.Equal(t, id.String(), logger.SubscriptionID(id).Value.String())
	assert.Equal(t, "inbound", logger.Module("inbound").Value.String())

	tr := logger.Transition("active", "past_due")
	require.Equal(t, slog.KindGroup, tr.Value.Kind())
	assert.Equal(t, "past_due", tr.Value.Group()[1].Value.String())
}
