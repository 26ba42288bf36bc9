package domain

// ParameterScope names the tier a resolved bundle came from.
type ParameterScope string

const (
	ScopeDefault   ParameterScope = "default"
	ScopeWarehouse ParameterScope = "warehouse"
	ScopeSKU       ParameterScope = "sku"
)

// Parameters is a fully resolved forecasting bundle.
type Parameters struct {
	DaysToCover  int     `json:"days_to_cover"`
	MAWindowDays int     `json:"ma_window_days"`
	MinAvgDaily  float64 `json:"min_avg_daily"`
	SafetyDays   float64 `json:"safety_days"`
}

// ParameterSet is a stored bundle at warehouse or SKU scope. Nil fields are
// absent in storage and are filled from the defaults at resolution time.
type ParameterSet struct {
	DaysToCover  *int     `json:"days_to_cover,omitempty" db:"days_to_cover"`
	MAWindowDays *int     `json:"ma_window_days,omitempty" db:"ma_window_days"`
	MinAvgDaily  *float64 `json:"min_avg_daily,omitempty" db:"min_avg_daily"`
	SafetyDays   *float64 `json:"safety_days,omitempty" db:"safety_days"`
}

// SetOf wraps a complete bundle as a ParameterSet.
func SetOf(p Parameters) ParameterSet {
	days, window := p.DaysToCover, p.MAWindowDays
	minAvg, safety := p.MinAvgDaily, p.SafetyDays
	return ParameterSet{
		DaysToCover:  &days,
		MAWindowDays: &window,
		MinAvgDaily:  &minAvg,
		SafetyDays:   &safety,
	}
}

// WarehouseParameters is a warehouse-scope row.
type WarehouseParameters struct {
	WarehouseID int64 `json:"warehouse_id" db:"warehouse_id"`
	ParameterSet
}

// SKUParameters is a SKU override row.
type SKUParameters struct {
	WarehouseID int64  `json:"warehouse_id" db:"warehouse_id"`
	SKU         string `json:"sku" db:"sku"`
	ParameterSet
}

// ParameterInput is what a caller submits when saving a bundle. Values are
// clamped before they are stored.
type ParameterInput struct {
	DaysToCover  int     `json:"days_to_cover"`
	MAWindowDays int     `json:"ma_window_days"`
	MinAvgDaily  float64 `json:"min_avg_daily"`
	SafetyDays   float64 `json:"safety_days"`
}

// Clamped applies the storage bounds: days and window at least 1, floor and
// safety at least 0.
func (in ParameterInput) Clamped() Parameters {
	p := Parameters{
		DaysToCover:  in.DaysToCover,
		MAWindowDays: in.MAWindowDays,
		MinAvgDaily:  in.MinAvgDaily,
		SafetyDays:   in.SafetyDays,
	}
	if p.DaysToCover < 1 {
		p.DaysToCover = 1
	}
	if p.MAWindowDays < 1 {
		p.MAWindowDays = 1
	}
	if p.MinAvgDaily < 0 {
		p.MinAvgDaily = 0
	}
	if p.SafetyDays < 0 {
		p.SafetyDays = 0
	}
	return p
}

// ParameterTable is every stored bundle, keyed for resolution.
type ParameterTable struct {
	Warehouse map[int64]ParameterSet
	SKU       map[SKUKey]ParameterSet
}
