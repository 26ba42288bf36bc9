package domain

import "time"

// SalesRow is one imported sales line. Quantity is never negative.
type SalesRow struct {
	WarehouseID int64     `json:"warehouse_id" db:"warehouse_id"`
	SKU         string    `json:"sku" db:"sku"`
	SaleDate    time.Time `json:"sale_date" db:"sale_date"`
	Quantity    float64   `json:"quantity" db:"quantity"`
}

// Key returns the replenishment line the row belongs to.
func (r SalesRow) Key() SKUKey {
	return SKUKey{WarehouseID: r.WarehouseID, SKU: r.SKU}
}

// SalesQuery selects daily sales totals. At most one of SKUs and SKUContains
// is honoured; SKUs wins when both are set. A non-nil empty SKUs slice
// matches nothing.
type SalesQuery struct {
	Since       time.Time
	Until       time.Time
	WarehouseID int64
	SKUs        []string
	SKUContains string
}

// HasExactSKUs reports whether the query filters on an explicit SKU set.
func (q SalesQuery) HasExactSKUs() bool {
	return q.SKUs != nil
}
