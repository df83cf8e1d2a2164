package entitlements_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbion/subledger/pkg/entitlements"
	"github.com/orbion/subledger/pkg/subscription"
)

func TestDefaultPlans(t *testing.T) {
	t.Parallel()
	plans := entitlements.DefaultPlans()

	assert.Len(t, plans, 3)
	assert.Equal(t, int64(200), plans.Limits("emprendedor", subscription.ModuleInbound)["recepciones_mes"])
	assert.Equal(t, int64(20000), plans.Limits("pyme", subscription.ModuleWMS)["productos"])
	assert.Equal(t, int64(500000), plans.Limits("enterprise", subscription.ModuleInbound)["incidencias_mes"])
	assert.Equal(t, int64(5000), plans.Limits("", subscription.ModuleWMS)["movimientos_mes"])
	assert.Empty(t, plans.Limits("pyme", subscription.ModuleCore))
}

func TestMerge(t *testing.T) {
	t.Parallel()

	defaults := entitlements.Limits{"a": 10, "b": 20}
	merged := entitlements.Merge(defaults, map[string]*int64{"a": int64Ptr(5), "b": nil, "c": int64Ptr(-1)})

	assert.Equal(t, entitlements.Limits{"a": 5, "b": 20, "c": -1}, merged)
	assert.Equal(t, int64(10), defaults["a"], "defaults are not modified")
}

func TestInMemCatalog_Copies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	plans := entitlements.DefaultPlans()
	catalog := entitlements.NewInMemCatalog(plans)
	plans["pyme"][subscription.ModuleWMS]["productos"] = 1

	loaded, err := catalog.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), loaded["pyme"][subscription.ModuleWMS]["productos"])

	loaded["pyme"][subscription.ModuleWMS]["productos"] = 2
	again, err := catalog.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), again["pyme"][subscription.ModuleWMS]["productos"])
}

func TestYAMLCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "plans.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
segments:
  emprendedor:
    inbound:
      recepciones_mes: 300
  pyme:
    WMS:
      productos: 25000
      storage_mb: 0
`), 0o600))

		plans, err := entitlements.NewYAMLCatalog(path).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(300), plans["emprendedor"][subscription.ModuleInbound]["recepciones_mes"])
		assert.Equal(t, int64(25000), plans["pyme"][subscription.ModuleWMS]["productos"])
		assert.Contains(t, plans["pyme"][subscription.ModuleWMS], "storage_mb")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := entitlements.NewYAMLCatalog(filepath.Join(t.TempDir(), "nope.yaml")).Load(ctx)
		require.ErrorIs(t, err, entitlements.ErrFailedToLoadPlans)
	})

	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "segments: [1, 2"},
		{"empty", "segments: {}"},
		{"unknown module", "segments:\n  emprendedor:\n    billing:\n      x: 1\n"},
		{"no default segment", "segments:\n  pyme:\n    inbound:\n      x: 1\n"},
		{"non-integer limit", "segments:\n  emprendedor:\n    inbound:\n      x: lots\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := entitlements.ParseYAML([]byte(tt.doc))
			require.ErrorIs(t, err, entitlements.ErrInvalidCatalog)
		})
	}
}

func TestInMemDirectory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := entitlements.NewInMemDirectory()
	tenant := uuid.New()

	seg, err := dir.Segment(ctx, tenant)
	require.NoError(t, err)
	assert.Empty(t, seg)

	dir.SetOverride(tenant, subscription.ModuleWMS, "productos", int64Ptr(7))
	ov, err := dir.Overrides(ctx, tenant)
	require.NoError(t, err)
	require.NotNil(t, ov[subscription.ModuleWMS]["productos"])
	assert.Equal(t, int64(7), *ov[subscription.ModuleWMS]["productos"])

	*ov[subscription.ModuleWMS]["productos"] = 100
	again, err := dir.Overrides(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, int64(7), *again[subscription.ModuleWMS]["productos"])

	dir.SetOverride(tenant, subscription.ModuleWMS, "productos", nil)
	cleared, err := dir.Overrides(ctx, tenant)
	require.NoError(t, err)
	assert.NotContains(t, cleared[subscription.ModuleWMS], "productos")
}
