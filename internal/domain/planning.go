package domain

import "time"

// PlanningRequest configures the ad-hoc EWMA planning view. Dates are raw
// user input; invalid ones fall back to the defaults with a warning.
type PlanningRequest struct {
	WarehouseID  int64    `json:"warehouse_id"`
	PeriodStart  string   `json:"period_start"`
	PeriodEnd    string   `json:"period_end"`
	SafetyDays   *int     `json:"safety_days"`
	ShippingDays *int     `json:"shipping_days"`
	BufferDays   *int     `json:"reorder_days"`
	Alpha        *float64 `json:"alpha"`
}

type PlanningRow struct {
	WarehouseID   int64    `json:"warehouse_id"`
	WarehouseCode string   `json:"warehouse_code"`
	WarehouseName string   `json:"warehouse_name"`
	SKU           string   `json:"sku"`
	AvgPerDay     float64  `json:"avg_per_day"`
	Speed         float64  `json:"speed"`
	Stock         float64  `json:"stock"`
	Reorder       float64  `json:"reorder"`
	DaysCover     *float64 `json:"days_cover"`
	StockOutDate  *string  `json:"stock_out_date"`
	BelowSafety   bool     `json:"below_safety"`
	CoverageDays  int      `json:"coverage_days"`
	PeriodSold    float64  `json:"period_sold"`
}

type PlanningResult struct {
	PeriodStart  time.Time     `json:"period_start"`
	PeriodEnd    time.Time     `json:"period_end"`
	PeriodDays   int           `json:"period_days"`
	CoverageDays int           `json:"coverage_days"`
	Alpha        float64       `json:"alpha"`
	Rows         []PlanningRow `json:"rows"`
	TotalItems   int           `json:"total_items"`
	TotalReorder float64       `json:"total_reorder"`
	Warnings     []string      `json:"warnings,omitempty"`
}
