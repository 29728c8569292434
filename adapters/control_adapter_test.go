package adapters_test

import (
	"testing"

	"github.com/momentics/hioload-io/adapters"
	"github.com/momentics/hioload-io/control"
	"github.com/stretchr/testify/require"
)

func TestControlAdapterSeededFromManagerConfig(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	cfg := ctrl.GetConfig()
	require.Equal(t, 1, cfg["num_threads"])
	require.Equal(t, control.DefaultConfig().MessageQueueCapacity, cfg["message_queue_capacity"])
}

func TestControlAdapterSetConfigMergesAndReflectsInStats(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	require.NoError(t, ctrl.SetConfig(map[string]any{"k": 1}))

	stats := ctrl.Stats()
	require.Equal(t, 1, stats["k"])
	require.Equal(t, 1, stats["num_threads"])
}

// OnReload's hook must have observably run by the time SetConfig
// returns; dispatch happens after the store's internal lock is
// released, not on a detached goroutine, so this assertion is not a
// race.
func TestControlAdapterOnReloadRunsBeforeSetConfigReturns(t *testing.T) {
	ctrl := adapters.NewControlAdapter()

	called := false
	ctrl.OnReload(func() { called = true })
	require.NoError(t, ctrl.SetConfig(map[string]any{"x": 2}))

	require.True(t, called)
}

func TestControlAdapterMetricsSourceFeedsStats(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	metrics := control.NewAIOMetrics()
	metrics.AsyncWriteCount.Add(3)

	ctrl.RegisterMetricsSource("aio", metrics.Snapshot)

	stats := ctrl.Stats()
	require.EqualValues(t, 3, stats["aio.async.write"])

	metrics.AsyncWriteCount.Add(1)
	stats = ctrl.Stats()
	require.EqualValues(t, 4, stats["aio.async.write"], "Stats must reflect a live snapshot, not a stale push")
}

func TestControlAdapterSetMetricAndDebugProbe(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	ctrl.SetMetric("custom.gauge", 42)
	ctrl.RegisterDebugProbe("custom.probe", func() any { return "ok" })

	stats := ctrl.Stats()
	require.Equal(t, 42, stats["custom.gauge"])
	require.Equal(t, "ok", stats["debug.custom.probe"])
	require.Contains(t, stats, "debug.platform.cpus")
}
