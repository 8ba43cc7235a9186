package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	pkgerrors "github.com/hifideliveryeats/cartsync/pkg/errors"
	"github.com/hifideliveryeats/cartsync/pkg/logger"
	"github.com/hifideliveryeats/cartsync/pkg/types"
)

// Source loads the catalog from the backend.
type Source interface {
	FetchCatalog(ctx context.Context) ([]types.CatalogItem, error)
}

// Cache is the key/value surface used to share snapshots between processes.
type Cache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Lookup(ctx context.Context, key string) (string, bool, error)
}

type cachedSnapshot struct {
	FetchedAt time.Time           `json:"fetched_at"`
	Items     []types.CatalogItem `json:"items"`
}

// Option configures a Snapshot.
type Option func(*Snapshot)

// WithCache stores fetched catalogs under key for ttl and serves refreshes
// from it while the entry lives.
func WithCache(cache Cache, key string, ttl time.Duration) Option {
	return func(s *Snapshot) {
		if cache == nil || strings.TrimSpace(key) == "" || ttl <= 0 {
			return
		}
		s.cache = cache
		s.cacheKey = key
		s.ttl = ttl
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(s *Snapshot) {
		if logg != nil {
			s.logg = logg
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(s *Snapshot) {
		s.now = now
	}
}

// Snapshot is the latest known catalog. Stock ceilings for cart increments
// are read from it.
type Snapshot struct {
	source   Source
	cache    Cache
	cacheKey string
	ttl      time.Duration
	logg     *logger.Logger
	now      func() time.Time
	group    singleflight.Group

	mu        sync.RWMutex
	items     []types.CatalogItem
	index     map[string]int
	fetchedAt time.Time
}

func New(source Source, opts ...Option) (*Snapshot, error) {
	if source == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	s := &Snapshot{
		source: source,
		now:    time.Now,
		index:  map[string]int{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.logg == nil {
		s.logg = logger.New(logger.Options{ServiceName: "catalog", Output: io.Discard})
	}
	return s, nil
}

// Refresh replaces the snapshot. Concurrent callers share one fetch.
func (s *Snapshot) Refresh(ctx context.Context) ([]types.CatalogItem, error) {
	ch := s.group.DoChan("refresh", func() (any, error) {
		return s.load(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, ctx.Err(), "catalog refresh interrupted")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneItems(res.Val.([]types.CatalogItem)), nil
	}
}

// Lookup returns the entry for itemID from the current snapshot.
func (s *Snapshot) Lookup(itemID string) (types.CatalogItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.index[strings.TrimSpace(itemID)]
	if !ok {
		return types.CatalogItem{}, false
	}
	return s.items[idx], true
}

// Items returns the snapshot in backend order.
func (s *Snapshot) Items() []types.CatalogItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.items)
}

// FetchedAt is when the backend produced the current snapshot; zero before
// the first refresh.
func (s *Snapshot) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

func (s *Snapshot) load(ctx context.Context) ([]types.CatalogItem, error) {
	if cached, ok := s.readCache(ctx); ok {
		s.store(cached.Items, cached.FetchedAt)
		return cached.Items, nil
	}

	items, err := s.source.FetchCatalog(ctx)
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "fetch catalog")
		}
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "catalog.refresh_failed")
		return nil, err
	}

	fetchedAt := s.now().UTC()
	s.store(items, fetchedAt)
	s.writeCache(ctx, cachedSnapshot{FetchedAt: fetchedAt, Items: items})
	s.logg.Info(s.logg.WithField(ctx, "items", len(items)), "catalog.refreshed")
	return items, nil
}

func (s *Snapshot) store(items []types.CatalogItem, fetchedAt time.Time) {
	index := make(map[string]int, len(items))
	for i, item := range items {
		id := strings.TrimSpace(item.ItemID)
		if _, dup := index[id]; dup || id == "" {
			continue
		}
		index[id] = i
	}
	s.mu.Lock()
	s.items = cloneItems(items)
	s.index = index
	s.fetchedAt = fetchedAt
	s.mu.Unlock()
}

func (s *Snapshot) readCache(ctx context.Context) (cachedSnapshot, bool) {
	var cached cachedSnapshot
	if s.cache == nil {
		return cached, false
	}
	raw, ok, err := s.cache.Lookup(ctx, s.cacheKey)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "catalog.cache_read_failed")
		return cached, false
	}
	if !ok {
		return cached, false
	}
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "catalog.cache_decode_failed")
		return cached, false
	}
	return cached, true
}

func (s *Snapshot) writeCache(ctx context.Context, snap cachedSnapshot) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "catalog.cache_encode_failed")
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey, string(payload), s.ttl); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "catalog.cache_write_failed")
	}
}

func cloneItems(items []types.CatalogItem) []types.CatalogItem {
	out := make([]types.CatalogItem, len(items))
	copy(out, items)
	return out
}
