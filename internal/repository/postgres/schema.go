package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS warehouses (
		id         BIGSERIAL PRIMARY KEY,
		code       VARCHAR(50) NOT NULL UNIQUE,
		name       VARCHAR(120) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id           BIGSERIAL PRIMARY KEY,
		warehouse_id BIGINT NOT NULL REFERENCES warehouses(id) ON DELETE CASCADE,
		sku          TEXT NOT NULL,
		sale_date    DATE NOT NULL,
		quantity     NUMERIC(14,3) NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_wh_sku_date ON sales (warehouse_id, sku, sale_date)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales (sale_date)`,
	`CREATE TABLE IF NOT EXISTS stock_snapshots (
		id            BIGSERIAL PRIMARY KEY,
		warehouse_id  BIGINT NOT NULL REFERENCES warehouses(id) ON DELETE CASCADE,
		sku           TEXT NOT NULL,
		snapshot_date DATE NOT NULL,
		quantity      NUMERIC(14,3) NOT NULL DEFAULT 0,
		product_name  TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_wh_sku_date ON stock_snapshots (warehouse_id, sku, snapshot_date DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS warehouse_parameters (
		warehouse_id   BIGINT PRIMARY KEY REFERENCES warehouses(id) ON DELETE CASCADE,
		days_to_cover  INT,
		ma_window_days INT,
		min_avg_daily  NUMERIC(14,3),
		safety_days    NUMERIC(14,3),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS sku_parameters (
		warehouse_id   BIGINT NOT NULL REFERENCES warehouses(id) ON DELETE CASCADE,
		sku            TEXT NOT NULL,
		days_to_cover  INT,
		ma_window_days INT,
		min_avg_daily  NUMERIC(14,3),
		safety_days    NUMERIC(14,3),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (warehouse_id, sku)
	)`,
	`CREATE TABLE IF NOT EXISTS import_runs (
		id          UUID PRIMARY KEY,
		source      TEXT NOT NULL,
		status      VARCHAR(20) NOT NULL,
		files_total INT NOT NULL DEFAULT 0,
		files_done  INT NOT NULL DEFAULT 0,
		error       TEXT,
		started_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		finished_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS import_files (
		id          BIGSERIAL PRIMARY KEY,
		run_id      UUID NOT NULL REFERENCES import_runs(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		kind        VARCHAR(10) NOT NULL,
		status      VARCHAR(20) NOT NULL,
		imported    INT NOT NULL DEFAULT 0,
		skipped     INT NOT NULL DEFAULT 0,
		error       TEXT,
		started_at  TIMESTAMPTZ,
		finished_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_import_files_run ON import_files (run_id)`,
}

// Migrate creates any missing table. Existing tables are left as they are;
// DetectCapabilities reports what they lack.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

type columnRef struct {
	Table  string `db:"table_name"`
	Column string `db:"column_name"`
}

// DetectCapabilities inspects information_schema once so repositories can
// adapt their SQL to legacy tables.
func DetectCapabilities(ctx context.Context, db *sqlx.DB) (repository.Capabilities, error) {
	query := `
		SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema()
		  AND table_name IN ('warehouses', 'stock_snapshots', 'warehouse_parameters', 'sku_parameters')
	`

	var cols []columnRef
	if err := sqlx.SelectContext(ctx, db, &cols, query); err != nil {
		return repository.Capabilities{}, fmt.Errorf("failed to inspect schema: %w", err)
	}

	has := make(map[string]bool, len(cols))
	for _, c := range cols {
		has[c.Table+"."+c.Column] = true
	}

	caps := repository.Capabilities{
		SafetyColumn:     repository.SafetyDaysColumn,
		HasProductName:   has["stock_snapshots.product_name"],
		HasWarehouseCode: has["warehouses.code"],
		HasCreatedAt:     has["warehouses.created_at"],
	}
	if !has["warehouse_parameters.safety_days"] && has["warehouse_parameters.safety_stock"] {
		caps.SafetyColumn = repository.SafetyStockColumn
	}

	log.Info().
		Str("safety_column", caps.SafetyColumn).
		Bool("product_name", caps.HasProductName).
		Bool("warehouse_code", caps.HasWarehouseCode).
		Bool("created_at", caps.HasCreatedAt).
		Msg("detected schema capabilities")

	return caps, nil
}
