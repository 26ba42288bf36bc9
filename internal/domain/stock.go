package domain

import "time"

// StockSnapshot is an as-of stock count. Seq is the insertion sequence and
// breaks ties between snapshots sharing a SnapshotDate: the higher Seq wins.
type StockSnapshot struct {
	Seq          int64     `json:"seq" db:"id"`
	WarehouseID  int64     `json:"warehouse_id" db:"warehouse_id"`
	SKU          string    `json:"sku" db:"sku"`
	SnapshotDate time.Time `json:"snapshot_date" db:"snapshot_date"`
	Quantity     float64   `json:"quantity" db:"quantity"`
	ProductName  string    `json:"product_name" db:"product_name"`
}

func (s StockSnapshot) Key() SKUKey {
	return SKUKey{WarehouseID: s.WarehouseID, SKU: s.SKU}
}

// Newer reports whether s supersedes other as the current snapshot.
func (s StockSnapshot) Newer(other StockSnapshot) bool {
	if !s.SnapshotDate.Equal(other.SnapshotDate) {
		return s.SnapshotDate.After(other.SnapshotDate)
	}
	return s.Seq > other.Seq
}

// StockFilter narrows the latest-stock lookup. Search matches SKU or product
// name as a case-insensitive substring.
type StockFilter struct {
	WarehouseID int64
	Search      string
}
