package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type salesRepository struct {
	db sqlx.ExtContext
}

func NewSalesRepository(db sqlx.ExtContext) repository.SalesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) Insert(ctx context.Context, rows []domain.SalesRow) error {
	if len(rows) == 0 {
		return nil
	}

	args := make([]interface{}, 0, len(rows)*4)
	for _, row := range rows {
		args = append(args, row.WarehouseID, row.SKU, row.SaleDate, row.Quantity)
	}
	query := `INSERT INTO sales (warehouse_id, sku, sale_date, quantity) VALUES ` + placeholders(len(rows), 4, 1)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert %d sales rows: %w", len(rows), err)
	}
	return nil
}

func (r *salesRepository) Daily(ctx context.Context, q domain.SalesQuery) ([]domain.SalesRow, error) {
	if q.HasExactSKUs() && len(q.SKUs) == 0 {
		return nil, nil
	}

	var args []interface{}
	var conditions []string
	argCounter := 1

	if !q.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("sale_date >= $%d", argCounter))
		args = append(args, q.Since)
		argCounter++
	}

	if !q.Until.IsZero() {
		conditions = append(conditions, fmt.Sprintf("sale_date <= $%d", argCounter))
		args = append(args, q.Until)
		argCounter++
	}

	if q.WarehouseID > 0 {
		conditions = append(conditions, fmt.Sprintf("warehouse_id = $%d", argCounter))
		args = append(args, q.WarehouseID)
		argCounter++
	}

	if q.HasExactSKUs() {
		conditions = append(conditions, fmt.Sprintf("sku = ANY($%d::text[])", argCounter))
		args = append(args, pq.Array(q.SKUs))
		argCounter++
	} else if q.SKUContains != "" {
		conditions = append(conditions, fmt.Sprintf(`sku LIKE $%d ESCAPE '\'`, argCounter))
		args = append(args, likePattern(q.SKUContains))
		argCounter++
	}

	query := `
		SELECT warehouse_id, sku, sale_date, SUM(quantity) AS quantity
		FROM sales
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += `
		GROUP BY warehouse_id, sku, sale_date
		ORDER BY warehouse_id, sku, sale_date
	`

	var rows []domain.SalesRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query daily sales: %w", err)
	}
	return rows, nil
}
