package forecast

import (
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
)

// DashboardInput is everything a dashboard computation reads. The service
// loads it in a handful of batched queries; Dashboard itself does no I/O.
type DashboardInput struct {
	WarehouseID int64
	Search      string
	Defaults    domain.Parameters
	Warehouses  map[int64]domain.Warehouse
	Params      domain.ParameterTable
	// Stock holds the current snapshot per line, already narrowed by
	// warehouse and search.
	Stock map[domain.SKUKey]domain.StockSnapshot
	Sales SalesMap
	Today time.Time
}

// Dashboard computes one metric per line found in stock, sales or SKU
// overrides, sorted by warehouse name then SKU.
func (c *Calculator) Dashboard(in DashboardInput) domain.DashboardResult {
	today := dayOf(in.Today)
	search := strings.TrimSpace(in.Search)

	combos := make(map[domain.SKUKey]struct{})
	register := func(k domain.SKUKey) {
		if k.WarehouseID <= 0 || k.SKU == "" {
			return
		}
		if in.WarehouseID > 0 && k.WarehouseID != in.WarehouseID {
			return
		}
		combos[k] = struct{}{}
	}
	for k := range in.Stock {
		register(k)
	}
	for k := range in.Sales {
		register(k)
	}
	for k := range in.Params.SKU {
		register(k)
	}

	views := make([]domain.MetricView, 0, len(combos))
	var totalReorder int64
	for key := range combos {
		stock := StockPosition{}
		if snap, ok := in.Stock[key]; ok {
			stock = PositionOf(snap)
		}
		if search != "" && !containsFold(key.SKU, search) && !containsFold(stock.ProductName, search) {
			continue
		}

		params, scope := ResolveTable(key, in.Defaults, in.Params)
		series := Densify(in.Sales[key], today, c.Horizon(params))

		m := c.Compute(stock, series, params)
		m.WarehouseID = key.WarehouseID
		m.SKU = key.SKU
		m.Scope = scope
		if w, ok := in.Warehouses[key.WarehouseID]; ok {
			m.WarehouseName = strings.TrimSpace(w.Name)
			m.WarehouseCode = w.Code
		}
		if m.WarehouseName == "" {
			m.WarehouseName = domain.Warehouse{ID: key.WarehouseID}.DisplayName()
		}

		v := m.View()
		totalReorder += v.ReorderQty
		views = append(views, v)
	}

	sort.Slice(views, func(i, j int) bool {
		if views[i].WarehouseName != views[j].WarehouseName {
			return views[i].WarehouseName < views[j].WarehouseName
		}
		return views[i].SKU < views[j].SKU
	})

	return domain.DashboardResult{
		Data:    views,
		Summary: c.summary(len(views), totalReorder),
	}
}

func (c *Calculator) summary(items int, totalReorder int64) domain.DashboardSummary {
	s := domain.DashboardSummary{
		TotalItems:      items,
		TotalReorderQty: totalReorder,
		Strategy:        c.opts.Strategy,
		LookbackDays:    c.opts.LookbackDays,
	}
	switch c.opts.Strategy {
	case domain.StrategyTSVEWMA:
		s.ShortWindow = c.opts.ShortWindow
		s.LongWindow = c.opts.LongWindow
		s.Span = c.opts.Span
		alpha := SpanAlpha(c.opts.Span)
		s.Alpha = &alpha
	case domain.StrategyEWMA:
		alpha := c.opts.Alpha
		s.Alpha = &alpha
	}
	return s
}

// SalesHorizon is the widest Horizon over the defaults and every stored
// bundle, so one sales query covers every line of a dashboard.
func (c *Calculator) SalesHorizon(defaults domain.Parameters, table domain.ParameterTable) int {
	n := c.Horizon(clampParameters(defaults))
	for id := range table.Warehouse {
		p, _ := Resolve(id, "", defaults, table.Warehouse, nil)
		n = max(n, c.Horizon(p))
	}
	for key := range table.SKU {
		p, _ := ResolveTable(key, defaults, table)
		n = max(n, c.Horizon(p))
	}
	return n
}
