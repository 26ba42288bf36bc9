// Package repository declares the persistence ports. postgres implements
// them on sqlx; sqlite implements them on gorm for embedded use and tests.
package repository

import (
	"context"

	"github.com/andresuchdata/replenish/internal/domain"
)

type WarehouseRepository interface {
	// List returns every warehouse ordered by name.
	List(ctx context.Context) ([]domain.Warehouse, error)
	Get(ctx context.Context, id int64) (*domain.Warehouse, error)
	// Upsert creates or renames the warehouse identified by code. An empty
	// name keeps the stored one. created reports whether a row was inserted.
	Upsert(ctx context.Context, code, name string) (w domain.Warehouse, created bool, err error)
	// Resolve finds a warehouse by name, creating it when absent. Importers
	// call it once per distinct name.
	Resolve(ctx context.Context, name string) (int64, error)
}

type SalesRepository interface {
	Insert(ctx context.Context, rows []domain.SalesRow) error
	// Daily returns per-day totals matching q, one row per
	// (warehouse, sku, day).
	Daily(ctx context.Context, q domain.SalesQuery) ([]domain.SalesRow, error)
}

type StockRepository interface {
	Insert(ctx context.Context, rows []domain.StockSnapshot) error
	// Latest returns the current snapshot of every line matching f.
	Latest(ctx context.Context, f domain.StockFilter) ([]domain.StockSnapshot, error)
}

type ParameterRepository interface {
	Load(ctx context.Context) (domain.ParameterTable, error)
	ListWarehouse(ctx context.Context) ([]domain.WarehouseParameters, error)
	ListSKU(ctx context.Context) ([]domain.SKUParameters, error)
	SaveWarehouse(ctx context.Context, warehouseID int64, p domain.Parameters) error
	SaveSKU(ctx context.Context, warehouseID int64, sku string, p domain.Parameters) error
	// DeleteSKU returns domain.ErrNotFound when no override existed.
	DeleteSKU(ctx context.Context, warehouseID int64, sku string) error
}

type ImportRunRepository interface {
	CreateRun(ctx context.Context, run *domain.ImportRun) error
	UpdateRun(ctx context.Context, run *domain.ImportRun) error
	GetRun(ctx context.Context, id string) (*domain.ImportRun, error)
	ListRuns(ctx context.Context, limit int) ([]domain.ImportRun, error)
	AddFile(ctx context.Context, f *domain.ImportFile) error
	UpdateFile(ctx context.Context, f *domain.ImportFile) error
	ListFiles(ctx context.Context, runID string) ([]domain.ImportFile, error)
}

// Store groups the repositories of one backend. WithinTx hands fn a Store
// whose repositories share a single transaction; fn's error rolls it back.
type Store interface {
	Warehouses() WarehouseRepository
	Sales() SalesRepository
	Stock() StockRepository
	Parameters() ParameterRepository
	Runs() ImportRunRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
	Close() error
}
