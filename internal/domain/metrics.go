package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Strategy selects how daily demand is smoothed into one average.
type Strategy string

const (
	StrategySMA     Strategy = "sma"
	StrategyTSVEWMA Strategy = "tsv_ewma"
	StrategyEWMA    Strategy = "ewma"
)

// ParseStrategy maps user input onto a known strategy, defaulting to SMA.
func ParseStrategy(s string) Strategy {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyTSVEWMA:
		return StrategyTSVEWMA
	case StrategyEWMA:
		return StrategyEWMA
	default:
		return StrategySMA
	}
}

// DailyPoint is one day of demand in a chart series.
type DailyPoint struct {
	Date     string  `json:"date"`
	Quantity float64 `json:"quantity"`
}

// ComputedMetric is the full-precision forecast for one line. It is never
// persisted and is rounded only through View.
type ComputedMetric struct {
	WarehouseID   int64
	WarehouseName string
	WarehouseCode string
	SKU           string
	ProductName   string
	CurrentStock  float64
	SnapshotDate  *time.Time

	SmoothedAverage float64
	ShortAverage    *float64
	LongAverage     *float64
	EWMA            *float64
	EffectiveAvg    float64
	DaysOfCover     *float64
	TargetStock     float64
	ReorderQty      float64

	Parameters  Parameters
	Scope       ParameterScope
	DailySeries []DailyPoint
}

// MetricView is the display form of ComputedMetric.
type MetricView struct {
	WarehouseID   int64          `json:"warehouse_id"`
	WarehouseName string         `json:"warehouse_name"`
	WarehouseCode string         `json:"warehouse_code"`
	SKU           string         `json:"sku"`
	ProductName   string         `json:"product_name"`
	CurrentStock  int64          `json:"current_stock"`
	SnapshotDate  *string        `json:"snapshot_date"`
	MovingAverage float64        `json:"moving_average"`
	ShortAverage  *float64       `json:"short_average,omitempty"`
	LongAverage   *float64       `json:"long_average,omitempty"`
	EWMA          *float64       `json:"ewma,omitempty"`
	EffectiveAvg  float64        `json:"effective_avg"`
	DaysOfCover   *int64         `json:"days_of_cover"`
	TargetStock   int64          `json:"target_stock"`
	ReorderQty    int64          `json:"reorder_qty"`
	SafetyDays    int64          `json:"safety_days"`
	DaysToCover   int            `json:"days_to_cover"`
	MAWindowDays  int            `json:"ma_window_days"`
	MinAvgDaily   float64        `json:"min_avg_daily"`
	Scope         ParameterScope `json:"parameter_scope"`
	DailySeries   []DailyPoint   `json:"daily_series"`
}

// View rounds the metric for display. Quantities become whole units and
// averages keep two decimals; rounding is half away from zero.
func (m ComputedMetric) View() MetricView {
	v := MetricView{
		WarehouseID:   m.WarehouseID,
		WarehouseName: m.WarehouseName,
		WarehouseCode: m.WarehouseCode,
		SKU:           m.SKU,
		ProductName:   m.ProductName,
		CurrentStock:  RoundUnits(m.CurrentStock),
		MovingAverage: Round2(m.SmoothedAverage),
		EffectiveAvg:  Round2(m.EffectiveAvg),
		TargetStock:   RoundUnits(m.TargetStock),
		ReorderQty:    RoundUnits(m.ReorderQty),
		SafetyDays:    RoundUnits(m.Parameters.SafetyDays),
		DaysToCover:   m.Parameters.DaysToCover,
		MAWindowDays:  m.Parameters.MAWindowDays,
		MinAvgDaily:   m.Parameters.MinAvgDaily,
		Scope:         m.Scope,
		DailySeries:   m.DailySeries,
	}
	if m.SnapshotDate != nil {
		s := m.SnapshotDate.Format("2006-01-02")
		v.SnapshotDate = &s
	}
	if m.DaysOfCover != nil {
		d := RoundUnits(*m.DaysOfCover)
		v.DaysOfCover = &d
	}
	v.ShortAverage = round2Ptr(m.ShortAverage)
	v.LongAverage = round2Ptr(m.LongAverage)
	v.EWMA = round2Ptr(m.EWMA)
	if v.DailySeries == nil {
		v.DailySeries = []DailyPoint{}
	}
	return v
}

// RoundUnits rounds to a whole number of units.
func RoundUnits(v float64) int64 {
	return decimal.NewFromFloat(v).Round(0).IntPart()
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func round2Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := Round2(*v)
	return &r
}

// DashboardFilter drives one dashboard computation.
type DashboardFilter struct {
	WarehouseID int64    `json:"warehouse_id"`
	Search      string   `json:"sku"`
	Strategy    Strategy `json:"strategy"`
	ShortWindow int      `json:"short_window"`
	LongWindow  int      `json:"long_window"`
	Span        int      `json:"span"`
	Alpha       *float64 `json:"alpha"`
}

// DashboardSummary totals a dashboard result. TotalReorderQty sums the
// rounded per-line reorder quantities so it matches what the table shows.
type DashboardSummary struct {
	TotalItems      int      `json:"total_items"`
	TotalReorderQty int64    `json:"total_reorder_qty"`
	Strategy        Strategy `json:"strategy"`
	LookbackDays    int      `json:"lookback_days"`
	ShortWindow     int      `json:"short_window,omitempty"`
	LongWindow      int      `json:"long_window,omitempty"`
	Span            int      `json:"span,omitempty"`
	Alpha           *float64 `json:"alpha,omitempty"`
}

type DashboardResult struct {
	Data    []MetricView     `json:"data"`
	Summary DashboardSummary `json:"summary"`
}
