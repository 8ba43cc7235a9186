package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hifideliveryeats/cartsync/pkg/types"
)

// DefaultTTL bounds how long an abandoned cart copy stays around.
const DefaultTTL = 7 * 24 * time.Hour

// Store is the redis surface the mirror needs.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Lookup(ctx context.Context, key string) (string, bool, error)
	MirrorKey(customerID string) string
}

type record struct {
	SavedAt time.Time        `json:"saved_at"`
	Items   []types.CartLine `json:"items"`
}

// RedisMirror keeps the last applied cart for one customer in redis.
type RedisMirror struct {
	store Store
	key   string
	ttl   time.Duration
	now   func() time.Time
}

func NewRedisMirror(store Store, customerID string, ttl time.Duration) (*RedisMirror, error) {
	if store == nil {
		return nil, errors.New("mirror store required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisMirror{
		store: store,
		key:   store.MirrorKey(customerID),
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

func (m *RedisMirror) Save(ctx context.Context, lines []types.CartLine) error {
	if lines == nil {
		lines = []types.CartLine{}
	}
	payload, err := json.Marshal(record{SavedAt: m.now().UTC(), Items: lines})
	if err != nil {
		return err
	}
	return m.store.Set(ctx, m.key, string(payload), m.ttl)
}

// Load returns the mirrored list, or nil when nothing has been saved.
func (m *RedisMirror) Load(ctx context.Context) ([]types.CartLine, error) {
	raw, ok, err := m.store.Lookup(ctx, m.key)
	if err != nil || !ok {
		return nil, err
	}
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, err
	}
	return rec.Items, nil
}

// Key is the redis key holding this customer's copy.
func (m *RedisMirror) Key() string {
	return m.key
}
