package forecast

import (
	"sort"
	"strings"

	"github.com/andresuchdata/replenish/internal/domain"
)

// SalesMap holds daily sales totals per line, keyed by YYYY-MM-DD.
type SalesMap map[domain.SKUKey]map[string]float64

// Aggregate sums raw sales rows per (warehouse, SKU, day).
func Aggregate(rows []domain.SalesRow) SalesMap {
	out := make(SalesMap)
	for _, r := range rows {
		out.Add(r.Key(), r.SaleDate.Format(dateKeyLayout), r.Quantity)
	}
	return out
}

// Add accumulates qty onto one day of one line.
func (m SalesMap) Add(key domain.SKUKey, day string, qty float64) {
	days, ok := m[key]
	if !ok {
		days = make(map[string]float64)
		m[key] = days
	}
	days[day] += qty
}

// SmoothingOptions describes how a dashboard request smooths demand.
type SmoothingOptions struct {
	Strategy    domain.Strategy
	ShortWindow int
	LongWindow  int
	Span        int
	Alpha       float64

	// LookbackDays bounds the sales history and the EWMA input. ChartMaxDays
	// bounds the daily series attached to each metric.
	LookbackDays int
	ChartMaxDays int
}

// LookbackDays returns how many days of sales history a request needs. The
// configured lookback applies unless the request runs the dual-window
// strategy with explicit windows, in which case the widest of those wins.
func LookbackDays(cfgLookback int, opts SmoothingOptions) int {
	if opts.Strategy == domain.StrategyTSVEWMA && (opts.ShortWindow > 0 || opts.LongWindow > 0 || opts.Span > 0) {
		return max(opts.ShortWindow, opts.LongWindow, opts.Span, 1)
	}
	return max(cfgLookback, 0)
}

// ResolveSearch finds the SKUs a free-text term refers to. Stock rows match
// on SKU or product name and overrides match on SKU, all case-insensitively.
// The sorted result is what the sales lookup filters on, so history under a
// SKU stays attached even when only the product name matches the term.
func ResolveSearch(term string, stock []domain.StockSnapshot, skuParams map[domain.SKUKey]domain.ParameterSet) []string {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}

	set := make(map[string]struct{})
	for _, s := range stock {
		sku := strings.TrimSpace(s.SKU)
		if sku == "" {
			continue
		}
		if containsFold(sku, term) || (s.ProductName != "" && containsFold(s.ProductName, term)) {
			set[sku] = struct{}{}
		}
	}
	for key := range skuParams {
		sku := strings.TrimSpace(key.SKU)
		if sku != "" && containsFold(sku, term) {
			set[sku] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for sku := range set {
		out = append(out, sku)
	}
	sort.Strings(out)
	return out
}

// SalesQueryFor builds the sales lookup for a dashboard request. A search
// that resolved SKUs filters on that exact set; one that resolved nothing
// falls back to a substring match on the raw term.
func SalesQueryFor(base domain.SalesQuery, term string, resolved []string) domain.SalesQuery {
	q := base
	term = strings.TrimSpace(term)
	switch {
	case term == "":
	case len(resolved) > 0:
		q.SKUs = resolved
	default:
		q.SKUContains = term
	}
	return q
}

// FilterSales applies q to already loaded rows. Stores without a query
// language of their own use it.
func FilterSales(rows []domain.SalesRow, q domain.SalesQuery) []domain.SalesRow {
	if q.HasExactSKUs() && len(q.SKUs) == 0 {
		return nil
	}
	exact := make(map[string]struct{}, len(q.SKUs))
	for _, sku := range q.SKUs {
		exact[sku] = struct{}{}
	}

	out := make([]domain.SalesRow, 0, len(rows))
	for _, r := range rows {
		if !q.Since.IsZero() && r.SaleDate.Before(q.Since) {
			continue
		}
		if !q.Until.IsZero() && r.SaleDate.After(q.Until) {
			continue
		}
		if q.WarehouseID > 0 && r.WarehouseID != q.WarehouseID {
			continue
		}
		if q.HasExactSKUs() {
			if _, ok := exact[r.SKU]; !ok {
				continue
			}
		} else if q.SKUContains != "" && !strings.Contains(r.SKU, q.SKUContains) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// LatestStock keeps the current snapshot per line: latest date, then the
// highest insertion sequence.
func LatestStock(snaps []domain.StockSnapshot) map[domain.SKUKey]domain.StockSnapshot {
	out := make(map[domain.SKUKey]domain.StockSnapshot, len(snaps))
	for _, s := range snaps {
		if cur, ok := out[s.Key()]; ok && !s.Newer(cur) {
			continue
		}
		out[s.Key()] = s
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
