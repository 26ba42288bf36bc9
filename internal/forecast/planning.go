package forecast

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/normalize"
)

// PlanningDefaults are used for any request field left unset.
type PlanningDefaults struct {
	SafetyDays   int
	ShippingDays int
	BufferDays   int
	Alpha        float64
}

// PlanningWindow is a validated planning request.
type PlanningWindow struct {
	WarehouseID  int64
	Start        time.Time
	End          time.Time
	SafetyDays   int
	ShippingDays int
	BufferDays   int
	Alpha        float64
}

// PeriodDays counts both endpoints.
func (w PlanningWindow) PeriodDays() int {
	return max(int(w.End.Sub(w.Start).Hours()/24)+1, 1)
}

// CoverageDays is how many days of demand an order should cover.
func (w PlanningWindow) CoverageDays() int {
	return w.SafetyDays + w.ShippingDays + w.BufferDays
}

const (
	warnUnknownWarehouse = "Selected warehouse not found. Showing all warehouses instead."
	warnInvalidStart     = "Start date is invalid. Using default start date."
	warnInvalidEnd       = "End date is invalid. Using default end date."
	warnPeriodTooLong    = "Planning period is longer than ten years. Using the last ten years."

	minPlanningSpeed = 0.01

	// MaxPlanningPeriodDays bounds the densified series Plan builds per line.
	MaxPlanningPeriodDays = 3660
)

// ResolvePlanningWindow validates req against today. The default period runs
// from the first day of the month five months back through today. Unusable
// input falls back to a default and adds a warning instead of failing.
func ResolvePlanningWindow(req domain.PlanningRequest, today time.Time, defaults PlanningDefaults, warehouses map[int64]domain.Warehouse) (PlanningWindow, []string) {
	today = dayOf(today)
	var warnings []string

	w := PlanningWindow{
		SafetyDays:   nonNegative(req.SafetyDays, defaults.SafetyDays),
		ShippingDays: nonNegative(req.ShippingDays, defaults.ShippingDays),
		BufferDays:   nonNegative(req.BufferDays, defaults.BufferDays),
		Alpha:        defaults.Alpha,
	}
	if req.Alpha != nil {
		w.Alpha = *req.Alpha
	}
	w.Alpha = min(max(w.Alpha, 0), 1)

	if req.WarehouseID > 0 {
		if _, ok := warehouses[req.WarehouseID]; ok {
			w.WarehouseID = req.WarehouseID
		} else {
			warnings = append(warnings, warnUnknownWarehouse)
		}
	}

	defaultStart := time.Date(today.Year(), today.Month()-5, 1, 0, 0, 0, 0, time.UTC)

	w.Start = defaultStart
	if s := strings.TrimSpace(req.PeriodStart); s != "" {
		if d, ok := normalize.ParseDate(s); ok {
			w.Start = d
		} else {
			warnings = append(warnings, warnInvalidStart)
		}
	}
	w.End = today
	if s := strings.TrimSpace(req.PeriodEnd); s != "" {
		if d, ok := normalize.ParseDate(s); ok {
			w.End = d
		} else {
			warnings = append(warnings, warnInvalidEnd)
		}
	}
	if w.End.Before(w.Start) {
		w.Start, w.End = w.End, w.Start
	}
	if w.PeriodDays() > MaxPlanningPeriodDays {
		w.Start = w.End.AddDate(0, 0, -(MaxPlanningPeriodDays - 1))
		warnings = append(warnings, warnPeriodTooLong)
	}
	return w, warnings
}

// PlanningInput is what Plan reads; all of it is loaded up front.
type PlanningInput struct {
	Window     PlanningWindow
	Warehouses map[int64]domain.Warehouse
	Stock      map[domain.SKUKey]domain.StockSnapshot
	// Sales covers Window.Start through Window.End.
	Sales SalesMap
	Today time.Time
}

// Plan runs the fixed-alpha EWMA planning view. Lines come from stock and
// period sales; lines of unknown warehouses are dropped. Rows sort by
// reorder quantity descending, then warehouse code, then SKU.
func Plan(in PlanningInput) domain.PlanningResult {
	w := in.Window
	today := dayOf(in.Today)
	periodDays := w.PeriodDays()
	coverage := w.CoverageDays()

	combos := make(map[domain.SKUKey]struct{}, len(in.Stock)+len(in.Sales))
	for k := range in.Stock {
		combos[k] = struct{}{}
	}
	for k := range in.Sales {
		combos[k] = struct{}{}
	}

	rows := make([]domain.PlanningRow, 0, len(combos))
	var totalReorder float64
	for key := range combos {
		if w.WarehouseID > 0 && key.WarehouseID != w.WarehouseID {
			continue
		}
		wh, ok := in.Warehouses[key.WarehouseID]
		if !ok {
			continue
		}

		onHand := max(in.Stock[key].Quantity, 0)
		series := Densify(in.Sales[key], w.End, periodDays)
		periodSold := series.Total()

		speed, _ := EWMA(series.Values, w.Alpha)
		if speed < minPlanningSpeed {
			speed = 0
		}

		var reorder float64
		if target := float64(coverage) * speed; target > onHand {
			reorder = math.Ceil(target - onHand)
		}

		row := domain.PlanningRow{
			WarehouseID:   key.WarehouseID,
			WarehouseCode: wh.Code,
			WarehouseName: wh.DisplayName(),
			SKU:           key.SKU,
			AvgPerDay:     domain.Round2(periodSold / float64(periodDays)),
			Speed:         domain.Round2(speed),
			Stock:         onHand,
			Reorder:       reorder,
			BelowSafety:   speed > 0 && onHand < float64(w.SafetyDays)*speed,
			CoverageDays:  coverage,
			PeriodSold:    periodSold,
		}
		if speed > 0 {
			cover := max(onHand/speed, 0)
			rounded := domain.Round2(cover)
			row.DaysCover = &rounded
			out := today.AddDate(0, 0, int(math.Floor(cover))).Format(dateKeyLayout)
			row.StockOutDate = &out
		}

		totalReorder += reorder
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Reorder != b.Reorder {
			return a.Reorder > b.Reorder
		}
		if a.WarehouseCode != b.WarehouseCode {
			return a.WarehouseCode < b.WarehouseCode
		}
		return a.SKU < b.SKU
	})

	return domain.PlanningResult{
		PeriodStart:  w.Start,
		PeriodEnd:    w.End,
		PeriodDays:   periodDays,
		CoverageDays: coverage,
		Alpha:        w.Alpha,
		Rows:         rows,
		TotalItems:   len(rows),
		TotalReorder: totalReorder,
	}
}

func nonNegative(v *int, def int) int {
	if v == nil {
		return def
	}
	return max(*v, 0)
}
