package forecast

import (
	"reflect"
	"testing"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/normalize"
)

func TestAggregateSumsPerDay(t *testing.T) {
	rows := []domain.SalesRow{
		{WarehouseID: 1, SKU: "A", SaleDate: normalize.MustDate("2024-03-05"), Quantity: 2},
		{WarehouseID: 1, SKU: "A", SaleDate: normalize.MustDate("2024-03-05"), Quantity: 3},
		{WarehouseID: 1, SKU: "A", SaleDate: normalize.MustDate("2024-03-06"), Quantity: 1},
		{WarehouseID: 2, SKU: "A", SaleDate: normalize.MustDate("2024-03-05"), Quantity: 4},
	}

	got := Aggregate(rows)
	want := SalesMap{
		{WarehouseID: 1, SKU: "A"}: {"2024-03-05": 5, "2024-03-06": 1},
		{WarehouseID: 2, SKU: "A"}: {"2024-03-05": 4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Aggregate = %v, want %v", got, want)
	}
}

func TestLookbackDays(t *testing.T) {
	cases := []struct {
		name string
		opts SmoothingOptions
		want int
	}{
		{"sma uses config", SmoothingOptions{Strategy: domain.StrategySMA, ShortWindow: 7, LongWindow: 120}, 90},
		{"tsv uses widest window", SmoothingOptions{Strategy: domain.StrategyTSVEWMA, ShortWindow: 7, LongWindow: 30, Span: 45}, 45},
		{"tsv without windows uses config", SmoothingOptions{Strategy: domain.StrategyTSVEWMA}, 90},
		{"ewma uses config", SmoothingOptions{Strategy: domain.StrategyEWMA, Span: 200}, 90},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := LookbackDays(90, tc.opts); got != tc.want {
				t.Fatalf("LookbackDays = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestResolveSearch(t *testing.T) {
	stock := []domain.StockSnapshot{
		{WarehouseID: 1, SKU: "ABC-1", ProductName: "Blue Mug"},
		{WarehouseID: 1, SKU: "XYZ-9", ProductName: "Red mug"},
		{WarehouseID: 2, SKU: "ABC-1", ProductName: "Blue Mug"},
		{WarehouseID: 2, SKU: "QQQ", ProductName: "Plate"},
	}
	overrides := map[domain.SKUKey]domain.ParameterSet{
		{WarehouseID: 3, SKU: "MUG-OLD"}: {},
		{WarehouseID: 3, SKU: "PLATE-2"}: {},
	}

	got := ResolveSearch("MUG", stock, overrides)
	want := []string{"ABC-1", "MUG-OLD", "XYZ-9"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ResolveSearch = %v, want %v", got, want)
	}

	if got := ResolveSearch("  ", stock, overrides); got != nil {
		t.Fatalf("blank term should resolve nil, got %v", got)
	}
	if got := ResolveSearch("nothing", stock, overrides); len(got) != 0 {
		t.Fatalf("unmatched term should resolve empty, got %v", got)
	}
}

func TestSalesQueryFor(t *testing.T) {
	base := domain.SalesQuery{WarehouseID: 4}

	q := SalesQueryFor(base, "mug", []string{"A", "B"})
	if !reflect.DeepEqual(q.SKUs, []string{"A", "B"}) || q.SKUContains != "" {
		t.Fatalf("resolved search should filter on exact set, got %+v", q)
	}

	q = SalesQueryFor(base, "mug", nil)
	if q.HasExactSKUs() || q.SKUContains != "mug" {
		t.Fatalf("unresolved search should fall back to substring, got %+v", q)
	}

	q = SalesQueryFor(base, "", nil)
	if q.HasExactSKUs() || q.SKUContains != "" || q.WarehouseID != 4 {
		t.Fatalf("no search should leave query alone, got %+v", q)
	}
}

func TestFilterSales(t *testing.T) {
	d := normalize.MustDate
	rows := []domain.SalesRow{
		{WarehouseID: 1, SKU: "abc", SaleDate: d("2024-03-01"), Quantity: 1},
		{WarehouseID: 1, SKU: "ABC", SaleDate: d("2024-03-05"), Quantity: 1},
		{WarehouseID: 2, SKU: "ABC", SaleDate: d("2024-03-05"), Quantity: 1},
	}

	got := FilterSales(rows, domain.SalesQuery{Since: d("2024-03-02"), SKUs: []string{"ABC"}})
	if len(got) != 2 {
		t.Fatalf("exact filter returned %d rows, want 2", len(got))
	}
	if got := FilterSales(rows, domain.SalesQuery{SKUs: []string{}}); len(got) != 0 {
		t.Fatalf("empty exact set returned %d rows, want 0", len(got))
	}
	if got := FilterSales(rows, domain.SalesQuery{WarehouseID: 1, SKUContains: "b"}); len(got) != 1 {
		t.Fatalf("substring filter returned %d rows, want 1", len(got))
	}
}

func TestLatestStockTieBreaksOnSequence(t *testing.T) {
	d := normalize.MustDate
	snaps := []domain.StockSnapshot{
		{Seq: 1, WarehouseID: 1, SKU: "A", SnapshotDate: d("2024-03-05"), Quantity: 10},
		{Seq: 3, WarehouseID: 1, SKU: "A", SnapshotDate: d("2024-03-04"), Quantity: 99},
		{Seq: 2, WarehouseID: 1, SKU: "A", SnapshotDate: d("2024-03-05"), Quantity: 12},
	}

	got := LatestStock(snaps)[domain.SKUKey{WarehouseID: 1, SKU: "A"}]
	if got.Quantity != 12 {
		t.Fatalf("latest quantity = %v, want 12", got.Quantity)
	}
}

func TestDensifyFillsGaps(t *testing.T) {
	s := Densify(map[string]float64{"2024-03-05": 4, "2024-03-03": 1, "2024-02-01": 50}, normalize.MustDate("2024-03-05"), 4)
	want := []float64{0, 1, 0, 4}
	if !reflect.DeepEqual(s.Values, want) {
		t.Fatalf("Densify = %v, want %v", s.Values, want)
	}
	if got := s.DateAt(0).Format("2006-01-02"); got != "2024-03-02" {
		t.Fatalf("first day = %s, want 2024-03-02", got)
	}
}
