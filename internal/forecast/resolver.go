package forecast

import "github.com/andresuchdata/replenish/internal/domain"

// Resolve picks the parameter bundle for one (warehouse, SKU) line. A SKU
// override shadows the warehouse bundle, which shadows the defaults. Only
// fields absent from the chosen bundle are taken from defaults; bundles are
// never merged across scopes.
func Resolve(
	warehouseID int64,
	sku string,
	defaults domain.Parameters,
	warehouseParams map[int64]domain.ParameterSet,
	skuParams map[domain.SKUKey]domain.ParameterSet,
) (domain.Parameters, domain.ParameterScope) {
	set, scope := domain.SetOf(defaults), domain.ScopeDefault
	if p, ok := skuParams[domain.SKUKey{WarehouseID: warehouseID, SKU: sku}]; ok {
		set, scope = p, domain.ScopeSKU
	} else if p, ok := warehouseParams[warehouseID]; ok {
		set, scope = p, domain.ScopeWarehouse
	}

	resolved := domain.Parameters{
		DaysToCover:  intOr(set.DaysToCover, defaults.DaysToCover),
		MAWindowDays: intOr(set.MAWindowDays, defaults.MAWindowDays),
		MinAvgDaily:  floatOr(set.MinAvgDaily, defaults.MinAvgDaily),
		SafetyDays:   floatOr(set.SafetyDays, defaults.SafetyDays),
	}
	return clampParameters(resolved), scope
}

// ResolveTable is Resolve over a loaded ParameterTable.
func ResolveTable(key domain.SKUKey, defaults domain.Parameters, table domain.ParameterTable) (domain.Parameters, domain.ParameterScope) {
	return Resolve(key.WarehouseID, key.SKU, defaults, table.Warehouse, table.SKU)
}

func clampParameters(p domain.Parameters) domain.Parameters {
	p.DaysToCover = max(p.DaysToCover, 1)
	p.MAWindowDays = max(p.MAWindowDays, 1)
	p.MinAvgDaily = max(p.MinAvgDaily, 0)
	p.SafetyDays = max(p.SafetyDays, 0)
	return p
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
