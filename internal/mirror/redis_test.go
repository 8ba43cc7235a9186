package mirror

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hifideliveryeats/cartsync/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	data   map[string]string
	ttls   map[string]time.Duration
	setErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryStore) MirrorKey(customerID string) string {
	return "test:" + customerID
}

func TestRedisMirrorRoundTrip(t *testing.T) {
	store := newMemoryStore()
	m, err := NewRedisMirror(store, "C001", 0)
	require.NoError(t, err)
	assert.Equal(t, "test:C001", m.Key())

	lines, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, lines)

	saved := []types.CartLine{{ItemID: "M001", Name: "Vada", UnitPrice: decimal.NewFromInt(30), Quantity: 2}}
	require.NoError(t, m.Save(context.Background(), saved))
	assert.Equal(t, DefaultTTL, store.ttls["test:C001"])

	lines, err = m.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "M001", lines[0].ItemID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, lines[0].UnitPrice.Equal(decimal.NewFromInt(30)))
}

func TestRedisMirrorSavesEmptyCart(t *testing.T) {
	store := newMemoryStore()
	m, err := NewRedisMirror(store, "C001", time.Hour)
	require.NoError(t, err)

	require.NoError(t, m.Save(context.Background(), nil))
	lines, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
}

func TestRedisMirrorErrors(t *testing.T) {
	_, err := NewRedisMirror(nil, "C001", time.Hour)
	require.Error(t, err)

	store := newMemoryStore()
	store.setErr = errors.New("redis down")
	m, err := NewRedisMirror(store, "C001", time.Hour)
	require.NoError(t, err)
	require.Error(t, m.Save(context.Background(), nil))

	store.data["test:C001"] = "garbage"
	_, err = m.Load(context.Background())
	require.Error(t, err)
}
