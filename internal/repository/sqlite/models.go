package sqlite

import (
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
)

type warehouseModel struct {
	ID        int64  `gorm:"primaryKey"`
	Code      string `gorm:"size:50;uniqueIndex;not null"`
	Name      string `gorm:"size:120;not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (warehouseModel) TableName() string { return "warehouses" }

func (m warehouseModel) toDomain() domain.Warehouse {
	return domain.Warehouse{ID: m.ID, Code: m.Code, Name: m.Name, CreatedAt: m.CreatedAt}
}

type salesModel struct {
	ID          int64     `gorm:"primaryKey"`
	WarehouseID int64     `gorm:"not null;index:idx_sales_wh_sku_date,priority:1"`
	SKU         string    `gorm:"column:sku;not null;index:idx_sales_wh_sku_date,priority:2"`
	SaleDate    time.Time `gorm:"not null;index:idx_sales_wh_sku_date,priority:3"`
	Quantity    float64   `gorm:"not null;default:0"`
	CreatedAt   time.Time
}

func (salesModel) TableName() string { return "sales" }

type stockModel struct {
	ID           int64     `gorm:"primaryKey"`
	WarehouseID  int64     `gorm:"not null;index:idx_stock_wh_sku_date,priority:1"`
	SKU          string    `gorm:"column:sku;not null;index:idx_stock_wh_sku_date,priority:2"`
	SnapshotDate time.Time `gorm:"not null;index:idx_stock_wh_sku_date,priority:3"`
	Quantity     float64   `gorm:"not null;default:0"`
	ProductName  string    `gorm:"not null;default:''"`
	CreatedAt    time.Time
}

func (stockModel) TableName() string { return "stock_snapshots" }

func (m stockModel) toDomain() domain.StockSnapshot {
	return domain.StockSnapshot{
		Seq:          m.ID,
		WarehouseID:  m.WarehouseID,
		SKU:          m.SKU,
		SnapshotDate: m.SnapshotDate.UTC(),
		Quantity:     m.Quantity,
		ProductName:  m.ProductName,
	}
}

type warehouseParamModel struct {
	WarehouseID  int64 `gorm:"primaryKey;autoIncrement:false"`
	DaysToCover  *int
	MAWindowDays *int `gorm:"column:ma_window_days"`
	MinAvgDaily  *float64
	SafetyDays   *float64
	UpdatedAt    time.Time
}

func (warehouseParamModel) TableName() string { return "warehouse_parameters" }

type skuParamModel struct {
	WarehouseID  int64  `gorm:"primaryKey;autoIncrement:false"`
	SKU          string `gorm:"column:sku;primaryKey"`
	DaysToCover  *int
	MAWindowDays *int `gorm:"column:ma_window_days"`
	MinAvgDaily  *float64
	SafetyDays   *float64
	UpdatedAt    time.Time
}

func (skuParamModel) TableName() string { return "sku_parameters" }

func paramSet(days, window *int, minAvg, safety *float64) domain.ParameterSet {
	return domain.ParameterSet{
		DaysToCover:  days,
		MAWindowDays: window,
		MinAvgDaily:  minAvg,
		SafetyDays:   safety,
	}
}

func allModels() []interface{} {
	return []interface{}{
		&warehouseModel{},
		&salesModel{},
		&stockModel{},
		&warehouseParamModel{},
		&skuParamModel{},
		&domain.ImportRun{},
		&domain.ImportFile{},
	}
}
