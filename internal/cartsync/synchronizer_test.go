package cartsync

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/hifideliveryeats/cartsync/pkg/errors"
	"github.com/hifideliveryeats/cartsync/pkg/metrics"
	"github.com/hifideliveryeats/cartsync/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu        sync.Mutex
	stored    []types.CartLine
	fetchErr  error
	saveErr   error
	nullData  bool
	saves     [][]types.CartLine
	inFlight  int
	maxFlight int
	saveDelay time.Duration
}

func (f *fakeBackend) FetchCart(ctx context.Context) ([]types.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return cloneLines(f.stored), nil
}

func (f *fakeBackend) SaveCart(ctx context.Context, lines []types.CartLine) ([]types.CartLine, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxFlight {
		f.maxFlight = f.inFlight
	}
	delay := f.saveDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	f.saves = append(f.saves, cloneLines(lines))
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.stored = cloneLines(lines)
	if f.nullData {
		return nil, nil
	}
	return cloneLines(lines), nil
}

func (f *fakeBackend) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

type memoryMirror struct {
	mu      sync.Mutex
	lines   []types.CartLine
	writes  int
	saveErr error
}

func (m *memoryMirror) Save(ctx context.Context, lines []types.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.lines = cloneLines(lines)
	return nil
}

func (m *memoryMirror) Load(ctx context.Context) ([]types.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneLines(m.lines), nil
}

func catalogEntry(id string, stock int) types.CatalogItem {
	return types.CatalogItem{
		ItemID:             id,
		Name:               "Item " + id,
		Price:              dec("100"),
		StockAvailable:     stock,
		DiscountPercentage: dec("10"),
	}
}

func newTestSynchronizer(t *testing.T, backend Backend, opts ...Option) *Synchronizer {
	t.Helper()
	s, err := New(backend, opts...)
	require.NoError(t, err)
	return s
}

func TestNewRequiresBackend(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.Error(t, err)
}

func TestIncrementCreatesLineAndPersists(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	s := newTestSynchronizer(t, backend)

	lines, err := s.Increment(context.Background(), "m-1", catalogEntry("m-1", 5))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "m-1", lines[0].ItemID)
	assert.Equal(t, 1, lines[0].Quantity)
	assert.True(t, lines[0].UnitPrice.Equal(dec("100")))
	assert.True(t, lines[0].DiscountPercent.Equal(dec("10")))

	lines, err = s.Increment(context.Background(), "m-1", catalogEntry("m-1", 5))
	require.NoError(t, err)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 2, backend.saveCount())
	assert.Equal(t, 2, s.ItemCount())
}

func TestIncrementRejectsAboveStockCeiling(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	reg := prometheus.NewRegistry()
	s := newTestSynchronizer(t, backend, WithMetrics(metrics.NewSyncMetrics(reg)))

	entry := catalogEntry("m-1", 3)
	for i := 0; i < 3; i++ {
		_, err := s.Increment(context.Background(), "m-1", entry)
		require.NoError(t, err)
	}

	lines, err := s.Increment(context.Background(), "m-1", entry)
	require.Error(t, err)
	assert.True(t, IsStockExceeded(err))
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, 3, s.Quantity("m-1"))
	assert.Equal(t, 3, backend.saveCount(), "a rejected increment must not persist")

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "m-1", details["menu_item_id"])
	assert.Equal(t, 3, details["stock_available"])
	assert.Equal(t, 4, details["requested"])
}

func TestIncrementOutOfStockItem(t *testing.T) {
	t.Parallel()

	s := newTestSynchronizer(t, &fakeBackend{})
	entry := catalogEntry("m-1", 10)
	entry.IsOutOfStock = true

	lines, err := s.Increment(context.Background(), "m-1", entry)
	assert.True(t, IsStockExceeded(err))
	assert.Empty(t, lines)
}

func TestIncrementValidatesInput(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	s := newTestSynchronizer(t, backend)

	_, err := s.Increment(context.Background(), "  ", catalogEntry("m-1", 1))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = s.Increment(context.Background(), "m-1", catalogEntry("m-2", 1))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Zero(t, backend.saveCount())
}

func TestDecrementRemovesLineAtOne(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	s := newTestSynchronizer(t, backend)

	_, err := s.Increment(context.Background(), "m-1", catalogEntry("m-1", 5))
	require.NoError(t, err)
	_, err = s.Increment(context.Background(), "m-2", catalogEntry("m-2", 5))
	require.NoError(t, err)

	lines, err := s.Decrement(context.Background(), "m-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "m-2", lines[0].ItemID)
	assert.Zero(t, s.Quantity("m-1"))
	assert.Equal(t, 3, backend.saveCount())
}

func TestDecrementKeepsOrder(t *testing.T) {
	t.Parallel()

	s := newTestSynchronizer(t, &fakeBackend{})
	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Increment(context.Background(), id, catalogEntry(id, 5))
		require.NoError(t, err)
	}
	_, err := s.Increment(context.Background(), "b", catalogEntry("b", 5))
	require.NoError(t, err)

	lines, err := s.Decrement(context.Background(), "b")
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"a", "b", "c"}, itemIDs(lines))
	assert.Equal(t, 1, lines[1].Quantity)
}

func TestDecrementAbsentIsNoop(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	s := newTestSynchronizer(t, backend)

	lines, err := s.Decrement(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Zero(t, backend.saveCount())
}

func TestRemoveManyPersistsOnce(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	s := newTestSynchronizer(t, backend)
	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Increment(context.Background(), id, catalogEntry(id, 5))
		require.NoError(t, err)
	}

	lines, err := s.RemoveMany(context.Background(), []string{"a", "c", "missing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, itemIDs(lines))
	assert.Equal(t, 4, backend.saveCount())

	lines, err = s.RemoveMany(context.Background(), []string{"missing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, itemIDs(lines))
	assert.Equal(t, 4, backend.saveCount(), "nothing removed means nothing sent")
}

func TestClearPersistsEmptyList(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	s := newTestSynchronizer(t, backend)
	_, err := s.Increment(context.Background(), "a", catalogEntry("a", 5))
	require.NoError(t, err)

	lines, err := s.Clear(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Empty(t, backend.stored)
	assert.Equal(t, 2, backend.saveCount())
	assert.True(t, s.ComputeSummary().Total.Equal(DefaultDeliveryCharge))
}

func TestPersistThenLoadRoundTrips(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	first := newTestSynchronizer(t, backend)
	_, err := first.Increment(context.Background(), "a", catalogEntry("a", 5))
	require.NoError(t, err)
	_, err = first.Increment(context.Background(), "b", catalogEntry("b", 5))
	require.NoError(t, err)
	_, err = first.Increment(context.Background(), "b", catalogEntry("b", 5))
	require.NoError(t, err)

	second := newTestSynchronizer(t, backend)
	lines, err := second.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, itemQuantities(first.Lines()), itemQuantities(lines))
}

func TestLoadCanonicalizesBackendData(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{stored: []types.CartLine{
		{ItemID: "a", Quantity: 1},
		{ItemID: "b", Quantity: 0},
		{ItemID: "a", Quantity: 2},
		{ItemID: "", Quantity: 4},
		{ItemID: " c ", Quantity: 1},
	}}
	s := newTestSynchronizer(t, backend)

	lines, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 3, "c": 1}, itemQuantities(lines))
	assert.Equal(t, []string{"a", "c"}, itemIDs(lines))
}

func TestLoadFailureEmptiesCart(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	mirror := &memoryMirror{}
	s := newTestSynchronizer(t, backend, WithMirror(mirror))
	_, err := s.Increment(context.Background(), "a", catalogEntry("a", 5))
	require.NoError(t, err)

	backend.fetchErr = errors.New("connection refused")
	lines, err := s.Load(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetworkFailure(err))
	assert.Empty(t, lines)
	assert.Empty(t, s.Lines())

	mirrored, err := s.LastMirrored(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1}, itemQuantities(mirrored), "failed load must not overwrite the mirror")
}

func TestLoadCancelledKeepsState(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	s := newTestSynchronizer(t, backend)
	_, err := s.Increment(context.Background(), "a", catalogEntry("a", 5))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	backend.fetchErr = context.Canceled

	lines, err := s.Load(ctx)
	require.Error(t, err)
	assert.True(t, IsNetworkFailure(err))
	assert.Equal(t, []string{"a"}, itemIDs(lines))
}

func TestPersistFailureKeepsLocalState(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	reg := prometheus.NewRegistry()
	s := newTestSynchronizer(t, backend, WithMetrics(metrics.NewSyncMetrics(reg)))
	_, err := s.Increment(context.Background(), "a", catalogEntry("a", 5))
	require.NoError(t, err)

	backend.saveErr = errors.New("502 bad gateway")
	lines, err := s.Increment(context.Background(), "a", catalogEntry("a", 5))
	require.Error(t, err)
	assert.True(t, IsNetworkFailure(err))
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 2, s.Quantity("a"))
	assert.Equal(t, 1, backend.stored[0].Quantity, "server keeps the last successful write")

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestPersistKeepsStockErrorFromBackend(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{saveErr: pkgerrors.New(pkgerrors.CodeStockExceeded, "only 1 left")}
	s := newTestSynchronizer(t, backend)

	_, err := s.Increment(context.Background(), "a", catalogEntry("a", 5))
	require.Error(t, err)
	assert.True(t, IsStockExceeded(err))
	assert.False(t, IsNetworkFailure(err))
}

func TestPersistNullDataKeepsLocalList(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{nullData: true}
	s := newTestSynchronizer(t, backend)

	lines, err := s.Increment(context.Background(), "a", catalogEntry("a", 5))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1}, itemQuantities(lines))
}

func TestMirrorReceivesAppliedLists(t *testing.T) {
	t.Parallel()

	mirror := &memoryMirror{}
	s := newTestSynchronizer(t, &fakeBackend{}, WithMirror(mirror), WithCustomerID("cust-1"))

	_, err := s.Increment(context.Background(), "a", catalogEntry("a", 5))
	require.NoError(t, err)
	_, err = s.Increment(context.Background(), "a", catalogEntry("a", 5))
	require.NoError(t, err)

	mirrored, err := s.LastMirrored(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 2}, itemQuantities(mirrored))
	assert.Equal(t, 2, mirror.writes)
}

func TestMirrorErrorsDoNotFailOperations(t *testing.T) {
	t.Parallel()

	mirror := &memoryMirror{saveErr: errors.New("redis down")}
	s := newTestSynchronizer(t, &fakeBackend{}, WithMirror(mirror))

	_, err := s.Increment(context.Background(), "a", catalogEntry("a", 5))
	require.NoError(t, err)
}

func TestMutationsRunSerially(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{saveDelay: 5 * time.Millisecond}
	s := newTestSynchronizer(t, backend)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Increment(context.Background(), "a", catalogEntry("a", 100))
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, s.Quantity("a"))
	assert.Equal(t, 1, backend.maxFlight)
	assert.Equal(t, 10, backend.stored[0].Quantity)
}

func TestComputeSummaryDuringPersist(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{saveDelay: 50 * time.Millisecond}
	s := newTestSynchronizer(t, backend)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Increment(context.Background(), "a", catalogEntry("a", 5))
	}()

	deadline := time.After(time.Second)
	for s.ItemCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("increment never applied locally")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	summary := s.ComputeSummary()
	assert.True(t, summary.Total.Equal(dec("156.20")), "total %s", summary.Total)
	<-done
}

func itemIDs(lines []types.CartLine) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, line.ItemID)
	}
	return out
}

func itemQuantities(lines []types.CartLine) map[string]int {
	out := make(map[string]int, len(lines))
	for _, line := range lines {
		out[line.ItemID] = line.Quantity
	}
	return out
}

func TestRandomSequencesKeepLinesWithinStock(t *testing.T) {
	t.Parallel()

	ceilings := map[string]int{"m-1": 3, "m-2": 1, "m-3": 5, "m-4": 0}
	ids := []string{"m-1", "m-2", "m-3", "m-4"}

	for seed := int64(1); seed <= 20; seed++ {
		t.Run(fmt.Sprintf("seed_%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			backend := &fakeBackend{}
			s := newTestSynchronizer(t, backend)
			ctx := context.Background()

			for step := 0; step < 60; step++ {
				id := ids[rng.Intn(len(ids))]
				var (
					lines []types.CartLine
					err   error
				)
				if rng.Intn(3) == 0 {
					lines, err = s.Decrement(ctx, id)
					require.NoError(t, err)
				} else {
					lines, err = s.Increment(ctx, id, catalogEntry(id, ceilings[id]))
					if err != nil {
						require.True(t, IsStockExceeded(err), "step %d: %v", step, err)
					}
				}

				seen := make(map[string]struct{}, len(lines))
				for _, line := range lines {
					_, dup := seen[line.ItemID]
					require.False(t, dup, "step %d: duplicate line %s", step, line.ItemID)
					seen[line.ItemID] = struct{}{}
					require.GreaterOrEqual(t, line.Quantity, 1, "step %d: %s", step, line.ItemID)
					require.LessOrEqual(t, line.Quantity, ceilings[line.ItemID], "step %d: %s", step, line.ItemID)
				}
				require.Equal(t, lines, s.Lines())
			}
		})
	}
}
