package routes

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hifideliveryeats/cartsync/internal/cartsync"
	"github.com/hifideliveryeats/cartsync/internal/catalog"
	"github.com/hifideliveryeats/cartsync/pkg/cartapi"
)

func TestSynchronizerAgainstBackend(t *testing.T) {
	router, _ := newTestRouter(t, stubPinger{})
	server := httptest.NewServer(router)
	defer server.Close()

	ctx := context.Background()
	client, err := cartapi.NewClient(server.URL, cartapi.WithCustomerID("C042"))
	require.NoError(t, err)

	snapshot, err := catalog.New(client)
	require.NoError(t, err)
	_, err = snapshot.Refresh(ctx)
	require.NoError(t, err)

	syncer, err := cartsync.New(client, cartsync.WithCustomerID("C042"))
	require.NoError(t, err)

	lines, err := syncer.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)

	coffee, ok := snapshot.Lookup("MI004")
	require.True(t, ok)
	for i := 0; i < 3; i++ {
		_, err = syncer.Increment(ctx, "MI004", coffee)
		require.NoError(t, err)
	}
	_, err = syncer.Increment(ctx, "MI004", coffee)
	require.Error(t, err)
	assert.True(t, cartsync.IsStockExceeded(err))
	assert.Equal(t, 3, syncer.Quantity("MI004"))

	dosa, ok := snapshot.Lookup("MI001")
	require.True(t, ok)
	_, err = syncer.Increment(ctx, "MI001", dosa)
	require.NoError(t, err)

	// 3x40 + 120 - 12 = 228, tax 41.04, delivery 50
	summary := syncer.ComputeSummary()
	assert.Equal(t, 4, summary.ItemCount)
	assert.Equal(t, "319.04", summary.Total.StringFixed(2))

	reloaded, err := cartsync.New(client)
	require.NoError(t, err)
	lines, err = reloaded.Load(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "MI004", lines[0].ItemID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, "MI001", lines[1].ItemID)
	assert.Equal(t, 1, lines[1].Quantity)

	_, err = reloaded.RemoveMany(ctx, []string{"MI004", "MI404"})
	require.NoError(t, err)
	_, err = syncer.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, syncer.ItemCount())

	_, err = syncer.Clear(ctx)
	require.NoError(t, err)
	lines, err = reloaded.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestSynchronizerLoadFailsWhenBackendDown(t *testing.T) {
	router, _ := newTestRouter(t, stubPinger{})
	server := httptest.NewServer(router)
	client, err := cartapi.NewClient(server.URL, cartapi.WithCustomerID("C042"))
	require.NoError(t, err)
	server.Close()

	syncer, err := cartsync.New(client)
	require.NoError(t, err)
	lines, err := syncer.Load(context.Background())
	require.Error(t, err)
	assert.True(t, cartsync.IsNetworkFailure(err))
	assert.Empty(t, lines)
}
