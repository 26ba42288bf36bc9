package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/jmoiron/sqlx"
)

type parameterRepository struct {
	db   sqlx.ExtContext
	caps repository.Capabilities
}

func NewParameterRepository(db sqlx.ExtContext, caps repository.Capabilities) repository.ParameterRepository {
	return &parameterRepository{db: db, caps: caps}
}

func (r *parameterRepository) Load(ctx context.Context) (domain.ParameterTable, error) {
	table := domain.ParameterTable{
		Warehouse: make(map[int64]domain.ParameterSet),
		SKU:       make(map[domain.SKUKey]domain.ParameterSet),
	}

	whParams, err := r.ListWarehouse(ctx)
	if err != nil {
		return table, err
	}
	for _, p := range whParams {
		table.Warehouse[p.WarehouseID] = p.ParameterSet
	}

	skuParams, err := r.ListSKU(ctx)
	if err != nil {
		return table, err
	}
	for _, p := range skuParams {
		table.SKU[domain.SKUKey{WarehouseID: p.WarehouseID, SKU: p.SKU}] = p.ParameterSet
	}
	return table, nil
}

func (r *parameterRepository) ListWarehouse(ctx context.Context) ([]domain.WarehouseParameters, error) {
	query := fmt.Sprintf(`
		SELECT warehouse_id, days_to_cover, ma_window_days, min_avg_daily, %s AS safety_days
		FROM warehouse_parameters
		ORDER BY warehouse_id
	`, r.caps.Safety())

	var params []domain.WarehouseParameters
	if err := sqlx.SelectContext(ctx, r.db, &params, query); err != nil {
		return nil, fmt.Errorf("failed to load warehouse parameters: %w", err)
	}
	return params, nil
}

func (r *parameterRepository) ListSKU(ctx context.Context) ([]domain.SKUParameters, error) {
	query := fmt.Sprintf(`
		SELECT warehouse_id, sku, days_to_cover, ma_window_days, min_avg_daily, %s AS safety_days
		FROM sku_parameters
		ORDER BY warehouse_id, sku
	`, r.caps.Safety())

	var params []domain.SKUParameters
	if err := sqlx.SelectContext(ctx, r.db, &params, query); err != nil {
		return nil, fmt.Errorf("failed to load sku parameters: %w", err)
	}
	return params, nil
}

func (r *parameterRepository) SaveWarehouse(ctx context.Context, warehouseID int64, p domain.Parameters) error {
	safety := r.caps.Safety()
	query := fmt.Sprintf(`
		INSERT INTO warehouse_parameters (warehouse_id, days_to_cover, ma_window_days, min_avg_daily, %[1]s)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (warehouse_id) DO UPDATE SET
			days_to_cover = EXCLUDED.days_to_cover,
			ma_window_days = EXCLUDED.ma_window_days,
			min_avg_daily = EXCLUDED.min_avg_daily,
			%[1]s = EXCLUDED.%[1]s
	`, safety)

	if _, err := r.db.ExecContext(ctx, query, warehouseID, p.DaysToCover, p.MAWindowDays, p.MinAvgDaily, p.SafetyDays); err != nil {
		return fmt.Errorf("failed to save warehouse parameters: %w", err)
	}
	return nil
}

func (r *parameterRepository) SaveSKU(ctx context.Context, warehouseID int64, sku string, p domain.Parameters) error {
	safety := r.caps.Safety()
	query := fmt.Sprintf(`
		INSERT INTO sku_parameters (warehouse_id, sku, days_to_cover, ma_window_days, min_avg_daily, %[1]s)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (warehouse_id, sku) DO UPDATE SET
			days_to_cover = EXCLUDED.days_to_cover,
			ma_window_days = EXCLUDED.ma_window_days,
			min_avg_daily = EXCLUDED.min_avg_daily,
			%[1]s = EXCLUDED.%[1]s
	`, safety)

	if _, err := r.db.ExecContext(ctx, query, warehouseID, sku, p.DaysToCover, p.MAWindowDays, p.MinAvgDaily, p.SafetyDays); err != nil {
		return fmt.Errorf("failed to save sku parameters: %w", err)
	}
	return nil
}

func (r *parameterRepository) DeleteSKU(ctx context.Context, warehouseID int64, sku string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sku_parameters WHERE warehouse_id = $1 AND sku = $2`, warehouseID, sku)
	if err != nil {
		return fmt.Errorf("failed to delete sku parameters: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete sku parameters: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
