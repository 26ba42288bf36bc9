package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/jmoiron/sqlx"
)

type stockRepository struct {
	db   sqlx.ExtContext
	caps repository.Capabilities
}

func NewStockRepository(db sqlx.ExtContext, caps repository.Capabilities) repository.StockRepository {
	return &stockRepository{db: db, caps: caps}
}

func (r *stockRepository) Insert(ctx context.Context, rows []domain.StockSnapshot) error {
	if len(rows) == 0 {
		return nil
	}

	cols := 4
	columns := "warehouse_id, sku, snapshot_date, quantity"
	if r.caps.HasProductName {
		cols = 5
		columns += ", product_name"
	}

	args := make([]interface{}, 0, len(rows)*cols)
	for _, row := range rows {
		args = append(args, row.WarehouseID, row.SKU, row.SnapshotDate, row.Quantity)
		if r.caps.HasProductName {
			args = append(args, row.ProductName)
		}
	}
	query := fmt.Sprintf(`INSERT INTO stock_snapshots (%s) VALUES %s`, columns, placeholders(len(rows), cols, 1))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert %d stock rows: %w", len(rows), err)
	}
	return nil
}

// Latest picks one row per (warehouse, sku): the newest snapshot date, and
// among equal dates the last inserted.
func (r *stockRepository) Latest(ctx context.Context, f domain.StockFilter) ([]domain.StockSnapshot, error) {
	productName := "''"
	if r.caps.HasProductName {
		productName = "product_name"
	}

	var args []interface{}
	var conditions []string
	argCounter := 1

	if f.WarehouseID > 0 {
		conditions = append(conditions, fmt.Sprintf("warehouse_id = $%d", argCounter))
		args = append(args, f.WarehouseID)
		argCounter++
	}

	if term := strings.TrimSpace(f.Search); term != "" {
		if r.caps.HasProductName {
			conditions = append(conditions, fmt.Sprintf(`(sku ILIKE $%d ESCAPE '\' OR product_name ILIKE $%d ESCAPE '\')`, argCounter, argCounter))
		} else {
			conditions = append(conditions, fmt.Sprintf(`sku ILIKE $%d ESCAPE '\'`, argCounter))
		}
		args = append(args, likePattern(term))
		argCounter++
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT ON (warehouse_id, sku)
			id, warehouse_id, sku, snapshot_date, quantity, %s AS product_name
		FROM stock_snapshots
	`, productName)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY warehouse_id, sku, snapshot_date DESC, id DESC"

	var snaps []domain.StockSnapshot
	if err := sqlx.SelectContext(ctx, r.db, &snaps, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query latest stock: %w", err)
	}
	return snaps, nil
}
