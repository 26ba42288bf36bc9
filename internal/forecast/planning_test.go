package forecast

import (
	"testing"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/normalize"
)

var planningDefaults = PlanningDefaults{SafetyDays: 14, ShippingDays: 14, BufferDays: 28, Alpha: 0.2}

func TestResolvePlanningWindowDefaults(t *testing.T) {
	w, warnings := ResolvePlanningWindow(domain.PlanningRequest{}, normalize.MustDate("2024-08-15"), planningDefaults, nil)

	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
	if got := w.Start.Format("2006-01-02"); got != "2024-03-01" {
		t.Fatalf("start = %s, want 2024-03-01", got)
	}
	if got := w.End.Format("2006-01-02"); got != "2024-08-15" {
		t.Fatalf("end = %s, want 2024-08-15", got)
	}
	if w.CoverageDays() != 56 || w.Alpha != 0.2 {
		t.Fatalf("window = %+v", w)
	}
}

func TestResolvePlanningWindowFallbacks(t *testing.T) {
	negative := -4
	alpha := 3.0
	req := domain.PlanningRequest{
		WarehouseID: 9,
		PeriodStart: "garbage",
		PeriodEnd:   "2024-01-10",
		SafetyDays:  &negative,
		Alpha:       &alpha,
	}
	w, warnings := ResolvePlanningWindow(req, normalize.MustDate("2024-08-15"), planningDefaults, map[int64]domain.Warehouse{1: {ID: 1}})

	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want unknown warehouse and invalid start", warnings)
	}
	if w.WarehouseID != 0 {
		t.Fatalf("unknown warehouse should widen to all, got %d", w.WarehouseID)
	}
	if w.SafetyDays != 0 || w.Alpha != 1 {
		t.Fatalf("clamps not applied: %+v", w)
	}
	// default start 2024-03-01 is after the end, so the period is swapped
	if w.Start.Format("2006-01-02") != "2024-01-10" || w.End.Format("2006-01-02") != "2024-03-01" {
		t.Fatalf("period = %s..%s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
	}
}

func TestResolvePlanningWindowCapsPeriod(t *testing.T) {
	req := domain.PlanningRequest{PeriodStart: "1900-01-01", PeriodEnd: "2024-08-15"}
	w, warnings := ResolvePlanningWindow(req, normalize.MustDate("2024-08-15"), planningDefaults, nil)

	if len(warnings) != 1 || warnings[0] != warnPeriodTooLong {
		t.Fatalf("warnings = %v, want the period cap", warnings)
	}
	if w.PeriodDays() != MaxPlanningPeriodDays {
		t.Fatalf("period = %d days, want %d", w.PeriodDays(), MaxPlanningPeriodDays)
	}
	if got := w.End.Format("2006-01-02"); got != "2024-08-15" {
		t.Fatalf("end = %s, want the requested end kept", got)
	}

	req.PeriodStart = w.Start.Format("2006-01-02")
	if _, warnings := ResolvePlanningWindow(req, normalize.MustDate("2024-08-15"), planningDefaults, nil); len(warnings) != 0 {
		t.Fatalf("a period at the cap should pass, got %v", warnings)
	}
}

func TestPlan(t *testing.T) {
	d := normalize.MustDate
	window := PlanningWindow{
		Start:        d("2024-03-01"),
		End:          d("2024-03-03"),
		SafetyDays:   1,
		ShippingDays: 1,
		BufferDays:   1,
		Alpha:        0.5,
	}
	in := PlanningInput{
		Window: window,
		Warehouses: map[int64]domain.Warehouse{
			1: {ID: 1, Code: "W1", Name: "Main"},
		},
		Stock: map[domain.SKUKey]domain.StockSnapshot{
			{WarehouseID: 1, SKU: "A"}: {Quantity: 1},
			{WarehouseID: 1, SKU: "B"}: {Quantity: 10},
			{WarehouseID: 9, SKU: "X"}: {Quantity: 1},
		},
		Sales: SalesMap{
			{WarehouseID: 1, SKU: "A"}: {"2024-03-01": 4, "2024-03-03": 2},
		},
		Today: d("2024-03-03"),
	}

	res := Plan(in)

	if res.TotalItems != 2 || res.PeriodDays != 3 || res.CoverageDays != 3 {
		t.Fatalf("result header = %+v", res)
	}
	a, b := res.Rows[0], res.Rows[1]
	if a.SKU != "A" || b.SKU != "B" {
		t.Fatalf("order = %s, %s; want A then B", a.SKU, b.SKU)
	}
	// ewma 4 -> 2 -> 2, target 3×2 = 6, on hand 1
	if a.Speed != 2 || a.Reorder != 5 || !a.BelowSafety || a.PeriodSold != 6 || a.AvgPerDay != 2 {
		t.Fatalf("A = %+v", a)
	}
	if a.StockOutDate == nil || *a.StockOutDate != "2024-03-03" {
		t.Fatalf("A stock out = %v, want today", a.StockOutDate)
	}
	if b.Speed != 0 || b.Reorder != 0 || b.DaysCover != nil || b.StockOutDate != nil || b.BelowSafety {
		t.Fatalf("B = %+v", b)
	}
	if res.TotalReorder != 5 {
		t.Fatalf("total reorder = %v, want 5", res.TotalReorder)
	}
}
