package cartsync

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/hifideliveryeats/cartsync/pkg/errors"
	"github.com/hifideliveryeats/cartsync/pkg/logger"
	"github.com/hifideliveryeats/cartsync/pkg/metrics"
	"github.com/hifideliveryeats/cartsync/pkg/types"
)

const (
	opLoad       = "load"
	opIncrement  = "increment"
	opDecrement  = "decrement"
	opRemoveMany = "remove_many"
	opClear      = "clear"
	opPersist    = "persist"
)

// Backend is the server-held copy of the cart.
type Backend interface {
	FetchCart(ctx context.Context) ([]types.CartLine, error)
	SaveCart(ctx context.Context, lines []types.CartLine) ([]types.CartLine, error)
}

// Mirror keeps a local, non-authoritative copy of the last applied cart.
type Mirror interface {
	Save(ctx context.Context, lines []types.CartLine) error
	Load(ctx context.Context) ([]types.CartLine, error)
}

// NoopMirror discards writes.
type NoopMirror struct{}

func (NoopMirror) Save(context.Context, []types.CartLine) error {
	return nil
}

func (NoopMirror) Load(context.Context) ([]types.CartLine, error) {
	return nil, nil
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

func WithLogger(logg *logger.Logger) Option {
	return func(s *Synchronizer) {
		if logg != nil {
			s.logg = logg
		}
	}
}

func WithMetrics(m *metrics.SyncMetrics) Option {
	return func(s *Synchronizer) {
		s.metrics = m
	}
}

func WithMirror(m Mirror) Option {
	return func(s *Synchronizer) {
		if m != nil {
			s.mirror = m
		}
	}
}

func WithPricing(p Pricing) Option {
	return func(s *Synchronizer) {
		s.pricing = p
	}
}

// WithCustomerID tags every log entry with the cart owner.
func WithCustomerID(id string) Option {
	return func(s *Synchronizer) {
		s.customerID = strings.TrimSpace(id)
	}
}

// Synchronizer owns the client-side cart list and keeps it in step with the
// backend. Mutations run one at a time: each holds opMu until its persist
// has returned, so at most one write is in flight. Reads only take stateMu
// and never wait on the network.
type Synchronizer struct {
	backend    Backend
	mirror     Mirror
	logg       *logger.Logger
	metrics    *metrics.SyncMetrics
	pricing    Pricing
	customerID string

	opMu    sync.Mutex
	stateMu sync.RWMutex
	lines   []types.CartLine
}

// New builds an empty synchronizer. Call Load to hydrate it.
func New(backend Backend, opts ...Option) (*Synchronizer, error) {
	if backend == nil {
		return nil, fmt.Errorf("cart backend required")
	}
	s := &Synchronizer{
		backend: backend,
		mirror:  NoopMirror{},
		pricing: DefaultPricing(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.logg == nil {
		s.logg = logger.New(logger.Options{ServiceName: "cartsync", Output: io.Discard})
	}
	return s, nil
}

// Load replaces the list with the backend's cart. On failure the list is
// emptied and a NETWORK_FAILURE is returned so the caller can warn the user;
// a cancelled context leaves the list untouched.
func (s *Synchronizer) Load(ctx context.Context) ([]types.CartLine, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	ctx = s.opContext(ctx, opLoad)
	start := time.Now()

	lines, err := s.backend.FetchCart(ctx)
	if err != nil {
		err = asBackendError(err, "load cart")
		s.recordFailure(opLoad, start, err)
		if ctx.Err() != nil {
			return s.Lines(), err
		}
		s.apply(ctx, nil, false)
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.load_failed_empty_cart")
		return nil, err
	}

	applied := s.apply(ctx, canonicalize(ctx, s.logg, lines), true)
	s.recordSuccess(opLoad, start)
	return applied, nil
}

// Increment adds one unit of itemID, creating the line from entry when it is
// not in the cart yet. The stock ceiling comes from entry, the latest catalog
// snapshot the caller holds; a rejection leaves the cart untouched.
func (s *Synchronizer) Increment(ctx context.Context, itemID string, entry types.CatalogItem) ([]types.CartLine, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return s.Lines(), pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if entry.ItemID != "" && strings.TrimSpace(entry.ItemID) != itemID {
		return s.Lines(), pkgerrors.New(pkgerrors.CodeValidation, "catalog entry does not match item id")
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	ctx = s.opContext(s.logg.WithField(ctx, "menu_item_id", itemID), opIncrement)

	next := s.Lines()
	idx := indexOf(next, itemID)
	current := 0
	if idx >= 0 {
		current = next[idx].Quantity
	}

	ceiling := entry.StockCeiling()
	if current+1 > ceiling {
		s.metrics.IncStockRejection()
		s.metrics.IncFailure(opIncrement, string(pkgerrors.CodeStockExceeded))
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"stock_available": ceiling,
			"quantity":        current,
		}), "cart.stock_exceeded")
		return next, stockExceeded(itemID, ceiling, current+1)
	}

	if idx >= 0 {
		next[idx].Quantity++
	} else {
		next = append(next, types.CartLine{
			ItemID:          itemID,
			Name:            entry.Name,
			UnitPrice:       entry.Price,
			Quantity:        1,
			DiscountPercent: clampPercent(entry.DiscountPercentage),
		})
	}
	s.setLines(next)

	return s.persistLocked(ctx, opIncrement)
}

// Decrement removes one unit of itemID, dropping the line when it reaches
// zero. An item not in the cart is a no-op and nothing is sent.
func (s *Synchronizer) Decrement(ctx context.Context, itemID string) ([]types.CartLine, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	next := s.Lines()
	idx := indexOf(next, itemID)
	if idx < 0 {
		return next, nil
	}

	ctx = s.opContext(s.logg.WithField(ctx, "menu_item_id", strings.TrimSpace(itemID)), opDecrement)

	qty := next[idx].Quantity - 1
	if qty < 0 {
		qty = 0
	}
	if qty == 0 {
		next = append(next[:idx], next[idx+1:]...)
	} else {
		next[idx].Quantity = qty
	}
	s.setLines(next)

	return s.persistLocked(ctx, opDecrement)
}

// RemoveMany drops every listed item and persists once. When none of the ids
// are in the cart nothing is sent.
func (s *Synchronizer) RemoveMany(ctx context.Context, itemIDs []string) ([]types.CartLine, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	drop := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			drop[trimmed] = struct{}{}
		}
	}

	current := s.Lines()
	next := make([]types.CartLine, 0, len(current))
	for _, line := range current {
		if _, ok := drop[strings.TrimSpace(line.ItemID)]; ok {
			continue
		}
		next = append(next, line)
	}
	if len(next) == len(current) {
		return current, nil
	}

	ctx = s.opContext(s.logg.WithField(ctx, "removed", len(current)-len(next)), opRemoveMany)
	s.setLines(next)

	return s.persistLocked(ctx, opRemoveMany)
}

// Clear empties the cart and persists the empty list.
func (s *Synchronizer) Clear(ctx context.Context) ([]types.CartLine, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	ctx = s.opContext(ctx, opClear)
	s.setLines(nil)
	return s.persistLocked(ctx, opClear)
}

// Persist pushes the full list and adopts the backend's canonical copy. A
// failure leaves the local list as it was and is returned to the caller;
// client and server stay divergent until the next successful Load.
func (s *Synchronizer) Persist(ctx context.Context) ([]types.CartLine, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	return s.persistLocked(s.opContext(ctx, opPersist), opPersist)
}

func (s *Synchronizer) persistLocked(ctx context.Context, op string) ([]types.CartLine, error) {
	start := time.Now()
	sent := s.Lines()

	canonical, err := s.backend.SaveCart(ctx, sent)
	if err != nil {
		err = asBackendError(err, "save cart")
		s.recordFailure(op, start, err)
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.persist_failed")
		return sent, err
	}

	// A response without data keeps what was sent.
	if canonical == nil {
		canonical = sent
	}
	applied := s.apply(ctx, canonicalize(ctx, s.logg, canonical), true)
	s.recordSuccess(op, start)
	return applied, nil
}

// ComputeSummary derives totals from the current list. It has no side effects.
func (s *Synchronizer) ComputeSummary() Summary {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return Summarize(s.lines, s.pricing)
}

// Lines returns a copy of the cart in display order.
func (s *Synchronizer) Lines() []types.CartLine {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return cloneLines(s.lines)
}

// ItemCount is the total number of units across all lines.
func (s *Synchronizer) ItemCount() int {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	total := 0
	for _, line := range s.lines {
		total += line.Quantity
	}
	return total
}

// Quantity returns the quantity held for itemID, zero when absent.
func (s *Synchronizer) Quantity(itemID string) int {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if idx := indexOf(s.lines, itemID); idx >= 0 {
		return s.lines[idx].Quantity
	}
	return 0
}

// LastMirrored returns the last list written to the local mirror. It is meant
// for showing a stale cart after Load failed, never for writing back.
func (s *Synchronizer) LastMirrored(ctx context.Context) ([]types.CartLine, error) {
	lines, err := s.mirror.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart mirror")
	}
	return lines, nil
}

func (s *Synchronizer) setLines(lines []types.CartLine) {
	s.stateMu.Lock()
	s.lines = lines
	s.stateMu.Unlock()
}

func (s *Synchronizer) apply(ctx context.Context, lines []types.CartLine, mirror bool) []types.CartLine {
	s.setLines(lines)
	out := cloneLines(lines)
	if mirror {
		if err := s.mirror.Save(ctx, out); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.mirror_save_failed")
		}
	}
	return out
}

func (s *Synchronizer) opContext(ctx context.Context, op string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = s.logg.WithOperation(ctx, op)
	if s.customerID != "" {
		ctx = s.logg.WithCustomerID(ctx, s.customerID)
	}
	return ctx
}

func (s *Synchronizer) recordSuccess(op string, start time.Time) {
	s.metrics.ObserveDuration(op, time.Since(start))
	s.metrics.IncSuccess(op)
}

func (s *Synchronizer) recordFailure(op string, start time.Time, err error) {
	s.metrics.ObserveDuration(op, time.Since(start))
	s.metrics.IncFailure(op, errorCode(err))
}
