package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hifideliveryeats/cartsync/internal/cartsync"
	"github.com/hifideliveryeats/cartsync/pkg/metrics"
)

func TestWriteMetricsRecordsCommandOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	backend := &memoryBackend{}
	a, _ := newTestApp(t, backend, cartsync.WithMetrics(metrics.NewSyncMetrics(registry)))

	require.NoError(t, a.run(context.Background(), "add", []string{"MI004", "4"}))

	path := filepath.Join(t.TempDir(), "cartctl.prom")
	require.NoError(t, writeMetrics(path, registry))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, `cart_sync_success{op="load"} 1`)
	assert.Contains(t, body, `cart_sync_success{op="increment"} 3`)
	assert.Contains(t, body, "cart_sync_stock_rejections 1")
}

func TestWriteMetricsSkipsEmptyPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeMetrics("  ", prometheus.NewRegistry()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
