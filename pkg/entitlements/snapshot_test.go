package entitlements_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbion/subledger/pkg/entitlements"
	"github.com/orbion/subledger/pkg/subscription"
)

func TestModuleSnapshot_Counters(t *testing.T) {
	t.Parallel()

	ms := entitlements.ModuleSnapshot{
		Module: subscription.ModuleWMS,
		Limits: entitlements.Limits{
			"productos":       100,
			"movimientos_mes": 10,
			"storage_mb":      0,
			"zonas":           0,
			"ubicaciones.max": 50,
		},
		Usage: map[string]int64{
			"productos":       25,
			"movimientos_mes": 2000,
			"storage_mb":      12,
		},
	}

	counters := ms.Counters()
	require.Len(t, counters, 4)

	keys := make([]string, len(counters))
	for i, c := range counters {
		keys[i] = c.Key
	}
	assert.Equal(t, []string{"movimientos_mes", "productos", "storage_mb", "ubicaciones.max"}, keys)

	assert.Equal(t, "Movimientos mes", counters[0].Label)
	assert.Equal(t, float64(999), counters[0].Percent)
	assert.True(t, counters[0].Limited)

	assert.Equal(t, float64(25), counters[1].Percent)
	assert.Equal(t, "count", counters[1].Unit)

	assert.Equal(t, "mb", counters[2].Unit)
	assert.False(t, counters[2].Limited)
	assert.Zero(t, counters[2].Percent)

	assert.Equal(t, "Ubicaciones max", counters[3].Label)
	assert.Zero(t, counters[3].Used)
}

func TestSnapshot_Module(t *testing.T) {
	t.Parallel()

	snap := &entitlements.Snapshot{Modules: []entitlements.ModuleSnapshot{
		{Module: subscription.ModuleCore, Status: entitlements.StatusInactive},
	}}

	ms, ok := snap.Module(subscription.ModuleCore)
	require.True(t, ok)
	assert.Equal(t, entitlements.StatusInactive, ms.Status)

	_, ok = snap.Module(subscription.ModuleWMS)
	assert.False(t, ok)
}
