package forecast

import (
	"testing"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/normalize"
)

func dashboardFixture() DashboardInput {
	d := normalize.MustDate
	return DashboardInput{
		Defaults: domain.Parameters{DaysToCover: 14, MAWindowDays: 7, MinAvgDaily: 1},
		Warehouses: map[int64]domain.Warehouse{
			1: {ID: 1, Code: "BET", Name: "Beta"},
			2: {ID: 2, Code: "ALP", Name: "Alpha"},
		},
		Params: domain.ParameterTable{
			SKU: map[domain.SKUKey]domain.ParameterSet{
				{WarehouseID: 2, SKU: "Z"}: {DaysToCover: intPtr(10)},
			},
		},
		Stock: map[domain.SKUKey]domain.StockSnapshot{
			{WarehouseID: 1, SKU: "A"}: {WarehouseID: 1, SKU: "A", Quantity: 5, ProductName: "Red Widget", SnapshotDate: d("2024-03-09")},
			{WarehouseID: 2, SKU: "B"}: {WarehouseID: 2, SKU: "B", Quantity: 0},
		},
		Sales: SalesMap{
			{WarehouseID: 1, SKU: "C"}: {"2024-03-10": 7},
		},
		Today: d("2024-03-10"),
	}
}

func TestDashboardCombosAndOrdering(t *testing.T) {
	calc := NewCalculator(SmoothingOptions{LookbackDays: 90, ChartMaxDays: 30})
	res := calc.Dashboard(dashboardFixture())

	wantOrder := []string{"Alpha/B", "Alpha/Z", "Beta/A", "Beta/C"}
	if len(res.Data) != len(wantOrder) {
		t.Fatalf("got %d rows, want %d", len(res.Data), len(wantOrder))
	}
	for i, row := range res.Data {
		if got := row.WarehouseName + "/" + row.SKU; got != wantOrder[i] {
			t.Fatalf("row %d = %s, want %s", i, got, wantOrder[i])
		}
	}

	byKey := map[string]domain.MetricView{}
	for _, row := range res.Data {
		byKey[row.SKU] = row
	}
	if r := byKey["A"]; r.ReorderQty != 9 || r.TargetStock != 14 || r.SnapshotDate == nil || *r.SnapshotDate != "2024-03-09" {
		t.Fatalf("A = %+v", r)
	}
	if r := byKey["Z"]; r.ReorderQty != 10 || r.Scope != domain.ScopeSKU || r.DaysToCover != 10 {
		t.Fatalf("Z = %+v", r)
	}
	if r := byKey["C"]; r.MovingAverage != 1 || r.ReorderQty != 14 {
		t.Fatalf("C = %+v", r)
	}

	if res.Summary.TotalItems != 4 || res.Summary.TotalReorderQty != 47 {
		t.Fatalf("summary = %+v, want 4 items / 47 reorder", res.Summary)
	}
	if res.Summary.Strategy != domain.StrategySMA || res.Summary.Alpha != nil {
		t.Fatalf("sma summary should not carry smoothing fields: %+v", res.Summary)
	}
}

func TestDashboardWarehouseFilter(t *testing.T) {
	in := dashboardFixture()
	in.WarehouseID = 2
	res := NewCalculator(SmoothingOptions{LookbackDays: 90}).Dashboard(in)

	for _, row := range res.Data {
		if row.WarehouseID != 2 {
			t.Fatalf("row from warehouse %d leaked through filter", row.WarehouseID)
		}
	}
	if res.Summary.TotalItems != 2 {
		t.Fatalf("total items = %d, want 2", res.Summary.TotalItems)
	}
}

func TestDashboardSearchMatchesProductName(t *testing.T) {
	in := dashboardFixture()
	in.Search = "widget"
	res := NewCalculator(SmoothingOptions{LookbackDays: 90}).Dashboard(in)

	if len(res.Data) != 1 || res.Data[0].SKU != "A" {
		t.Fatalf("search result = %+v, want only A", res.Data)
	}
}

func TestDashboardUnknownWarehouseName(t *testing.T) {
	in := dashboardFixture()
	in.Sales[domain.SKUKey{WarehouseID: 7, SKU: "Q"}] = map[string]float64{"2024-03-10": 1}
	res := NewCalculator(SmoothingOptions{LookbackDays: 90}).Dashboard(in)

	found := false
	for _, row := range res.Data {
		if row.WarehouseID == 7 {
			found = true
			if row.WarehouseName != "Warehouse #7" {
				t.Fatalf("warehouse name = %q, want fallback", row.WarehouseName)
			}
		}
	}
	if !found {
		t.Fatalf("line for warehouse 7 missing")
	}
}

func TestDashboardSummaryCarriesWindows(t *testing.T) {
	calc := NewCalculator(SmoothingOptions{Strategy: domain.StrategyTSVEWMA, ShortWindow: 7, LongWindow: 30, Span: 14, LookbackDays: 30})
	res := calc.Dashboard(dashboardFixture())

	s := res.Summary
	if s.ShortWindow != 7 || s.LongWindow != 30 || s.Span != 14 || s.Alpha == nil {
		t.Fatalf("summary = %+v", s)
	}
	if !approx(*s.Alpha, 2.0/15.0) {
		t.Fatalf("alpha = %v, want 2/15", *s.Alpha)
	}
}

func TestSalesHorizonCoversWidestWindow(t *testing.T) {
	calc := NewCalculator(SmoothingOptions{LookbackDays: 30})
	defaults := domain.Parameters{DaysToCover: 14, MAWindowDays: 7, MinAvgDaily: 1}

	wide := 45
	table := domain.ParameterTable{
		Warehouse: map[int64]domain.ParameterSet{},
		SKU: map[domain.SKUKey]domain.ParameterSet{
			{WarehouseID: 1, SKU: "A"}: {MAWindowDays: &wide},
		},
	}
	if got := calc.SalesHorizon(defaults, table); got != 45 {
		t.Fatalf("SalesHorizon = %d, want 45", got)
	}
	if got := calc.SalesHorizon(defaults, domain.ParameterTable{}); got != 30 {
		t.Fatalf("SalesHorizon without overrides = %d, want 30", got)
	}
}
