package repository

// Capabilities describes which optional columns the connected schema has.
// Older databases predate warehouse codes, product names and the rename of
// safety_stock to safety_days. It is detected once at startup and passed to
// every repository.
type Capabilities struct {
	SafetyColumn     string
	HasProductName   bool
	HasWarehouseCode bool
	HasCreatedAt     bool
}

const (
	SafetyDaysColumn  = "safety_days"
	SafetyStockColumn = "safety_stock"
)

// CurrentSchema is what Migrate creates.
func CurrentSchema() Capabilities {
	return Capabilities{
		SafetyColumn:     SafetyDaysColumn,
		HasProductName:   true,
		HasWarehouseCode: true,
		HasCreatedAt:     true,
	}
}

// Safety returns the parameter column holding safety days.
func (c Capabilities) Safety() string {
	if c.SafetyColumn == SafetyStockColumn {
		return SafetyStockColumn
	}
	return SafetyDaysColumn
}
