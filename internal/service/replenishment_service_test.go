package service

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/domain"
)

func forecastConfig() config.ForecastConfig {
	return config.ForecastConfig{
		DaysToCover:   14,
		MAWindowDays:  7,
		MinAvgDaily:   1,
		SafetyDays:    0,
		LookbackDays:  90,
		ChartMaxDays:  30,
		ShortWindow:   7,
		LongWindow:    30,
		Span:          14,
		DefaultMethod: "sma",
	}
}

func TestDashboardEndToEnd(t *testing.T) {
	store := setupStore(t)
	seedDemand(t, store)
	rc := newRecordingCache()

	svc := NewReplenishmentService(store, rc, forecastConfig(), time.UTC)
	svc.now = fixedNow

	result, err := svc.Dashboard(context.Background(), domain.DashboardFilter{})
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if len(result.Data) != 2 {
		t.Fatalf("got %d lines, want 2", len(result.Data))
	}

	a, b := result.Data[0], result.Data[1]
	if a.SKU != "A" || a.MovingAverage != 2 || a.TargetStock != 28 || a.ReorderQty != 23 {
		t.Errorf("line A = %+v, want avg 2 target 28 reorder 23", a)
	}
	if a.DaysOfCover == nil || *a.DaysOfCover != 3 {
		t.Errorf("line A days of cover = %v, want 3 (2.5 rounded)", a.DaysOfCover)
	}
	if a.ProductName != "Blue Mug" || a.WarehouseName != "Main Store" {
		t.Errorf("line A labels = %q / %q", a.ProductName, a.WarehouseName)
	}
	if b.SKU != "B" || b.EffectiveAvg != 1 || b.ReorderQty != 14 {
		t.Errorf("line B = %+v, want floor avg 1 reorder 14", b)
	}
	if result.Summary.TotalReorderQty != 37 || result.Summary.TotalItems != 2 {
		t.Errorf("summary = %+v, want 2 items and 37 units", result.Summary)
	}
	if rc.sets != 1 {
		t.Errorf("cache sets = %d, want 1", rc.sets)
	}

	// second call is served from the cache
	again, err := svc.Dashboard(context.Background(), domain.DashboardFilter{})
	if err != nil {
		t.Fatalf("cached dashboard failed: %v", err)
	}
	if again != result || rc.sets != 1 {
		t.Errorf("expected cached result, sets = %d", rc.sets)
	}
}

func TestDashboardSearchByProductName(t *testing.T) {
	store := setupStore(t)
	seedDemand(t, store)

	svc := NewReplenishmentService(store, nil, forecastConfig(), time.UTC)
	svc.now = fixedNow

	result, err := svc.Dashboard(context.Background(), domain.DashboardFilter{Search: "mug"})
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if len(result.Data) != 1 || result.Data[0].SKU != "A" {
		t.Fatalf("search result = %+v, want only A", result.Data)
	}
	if result.Data[0].MovingAverage != 2 {
		t.Fatalf("sales history lost under product-name search: avg %v", result.Data[0].MovingAverage)
	}
}

func TestDashboardOptions(t *testing.T) {
	svc := NewReplenishmentService(nil, nil, forecastConfig(), time.UTC)

	opts := svc.Options(domain.DashboardFilter{Strategy: domain.StrategyTSVEWMA, ShortWindow: 5, LongWindow: 20, Span: 10})
	if opts.LookbackDays != 20 {
		t.Errorf("explicit windows lookback = %d, want 20", opts.LookbackDays)
	}

	opts = svc.Options(domain.DashboardFilter{Strategy: domain.StrategyTSVEWMA, ShortWindow: 3})
	if opts.ShortWindow != 3 || opts.LongWindow != 30 || opts.Span != 14 || opts.LookbackDays != 30 {
		t.Errorf("single short window = %+v, want lookback 30 covering the default long window", opts)
	}

	opts = svc.Options(domain.DashboardFilter{})
	if opts.Strategy != domain.StrategySMA || opts.LookbackDays != 90 || opts.ShortWindow != 7 || opts.Span != 14 {
		t.Errorf("default options = %+v", opts)
	}

	alpha := 0.4
	opts = svc.Options(domain.DashboardFilter{Strategy: "EWMA", Alpha: &alpha})
	if opts.Strategy != domain.StrategyEWMA || opts.Alpha != 0.4 {
		t.Errorf("ewma options = %+v", opts)
	}
}

func TestBusinessDayUsesLocation(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	late := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)
	if got := businessDay(late, rome); got.Format("2006-01-02") != "2024-03-11" {
		t.Fatalf("businessDay = %s, want 2024-03-11", got.Format("2006-01-02"))
	}
	if got := businessDay(late, nil); got.Format("2006-01-02") != "2024-03-10" {
		t.Fatalf("businessDay UTC = %s", got.Format("2006-01-02"))
	}
}
