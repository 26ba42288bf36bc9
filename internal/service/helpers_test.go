package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/repository/sqlite"
)

func setupStore(t *testing.T) *sqlite.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	store, err := sqlite.Open(dsn)
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func fixedNow() time.Time {
	return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
}

// recordingCache keeps entries in memory and counts invalidations.
type recordingCache struct {
	mu          sync.Mutex
	entries     map[string]*domain.DashboardResult
	sets        int
	invalidated int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string]*domain.DashboardResult)}
}

func cacheKey(f domain.DashboardFilter, day time.Time) string {
	return fmt.Sprintf("%s|%d|%s|%s", day.Format("2006-01-02"), f.WarehouseID, f.Search, f.Strategy)
}

func (c *recordingCache) Get(_ context.Context, f domain.DashboardFilter, day time.Time) (*domain.DashboardResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[cacheKey(f, day)]
	return r, ok, nil
}

func (c *recordingCache) Set(_ context.Context, f domain.DashboardFilter, day time.Time, r *domain.DashboardResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(f, day)] = r
	c.sets++
	return nil
}

func (c *recordingCache) InvalidateAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*domain.DashboardResult)
	c.invalidated++
	return nil
}

// seedDemand creates warehouse MAIN with stock A=5 and sales of 2/day for
// A over the week ending fixedNow, plus one unit of B on the last day.
func seedDemand(t *testing.T, store *sqlite.Store) domain.Warehouse {
	t.Helper()
	ctx := context.Background()

	w, _, err := store.Warehouses().Upsert(ctx, "MAIN", "Main Store")
	if err != nil {
		t.Fatalf("upsert warehouse failed: %v", err)
	}

	if err := store.Stock().Insert(ctx, []domain.StockSnapshot{
		{WarehouseID: w.ID, SKU: "A", SnapshotDate: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), Quantity: 5, ProductName: "Blue Mug"},
	}); err != nil {
		t.Fatalf("insert stock failed: %v", err)
	}

	var sales []domain.SalesRow
	for d := 4; d <= 10; d++ {
		sales = append(sales, domain.SalesRow{WarehouseID: w.ID, SKU: "A", SaleDate: time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC), Quantity: 2})
	}
	sales = append(sales, domain.SalesRow{WarehouseID: w.ID, SKU: "B", SaleDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), Quantity: 1})
	if err := store.Sales().Insert(ctx, sales); err != nil {
		t.Fatalf("insert sales failed: %v", err)
	}
	return w
}
