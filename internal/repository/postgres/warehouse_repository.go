package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/jmoiron/sqlx"
)

type warehouseRepository struct {
	db   sqlx.ExtContext
	caps repository.Capabilities
}

func NewWarehouseRepository(db sqlx.ExtContext, caps repository.Capabilities) repository.WarehouseRepository {
	return &warehouseRepository{db: db, caps: caps}
}

// columns selects the Warehouse fields, substituting expressions for
// columns a legacy table lacks.
func (r *warehouseRepository) columns() string {
	cols := []string{"id", "name"}
	if r.caps.HasWarehouseCode {
		cols = append(cols, "code")
	} else {
		cols = append(cols, "UPPER(name) AS code")
	}
	if r.caps.HasCreatedAt {
		cols = append(cols, "created_at")
	} else {
		cols = append(cols, "TO_TIMESTAMP(0) AS created_at")
	}
	return strings.Join(cols, ", ")
}

func (r *warehouseRepository) List(ctx context.Context) ([]domain.Warehouse, error) {
	query := fmt.Sprintf(`SELECT %s FROM warehouses ORDER BY name, id`, r.columns())

	var warehouses []domain.Warehouse
	if err := sqlx.SelectContext(ctx, r.db, &warehouses, query); err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}
	return warehouses, nil
}

func (r *warehouseRepository) Get(ctx context.Context, id int64) (*domain.Warehouse, error) {
	query := fmt.Sprintf(`SELECT %s FROM warehouses WHERE id = $1`, r.columns())

	var w domain.Warehouse
	if err := sqlx.GetContext(ctx, r.db, &w, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrWarehouseNotFound
		}
		return nil, fmt.Errorf("failed to get warehouse %d: %w", id, err)
	}
	return &w, nil
}

func (r *warehouseRepository) Upsert(ctx context.Context, code, name string) (domain.Warehouse, bool, error) {
	if !r.caps.HasWarehouseCode {
		return r.upsertByName(ctx, code, name)
	}

	insertName := name
	if insertName == "" {
		insertName = code
	}

	updated := ""
	if r.caps.HasCreatedAt {
		updated = ", updated_at = NOW()"
	}
	query := fmt.Sprintf(`
		INSERT INTO warehouses (code, name)
		VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET
			name = CASE WHEN $3::boolean THEN EXCLUDED.name ELSE warehouses.name END%s
		RETURNING %s, (xmax = 0) AS created
	`, updated, r.columns())

	var row struct {
		domain.Warehouse
		Created bool `db:"created"`
	}
	if err := sqlx.GetContext(ctx, r.db, &row, query, code, insertName, name != ""); err != nil {
		return domain.Warehouse{}, false, fmt.Errorf("failed to upsert warehouse %s: %w", code, err)
	}
	return row.Warehouse, row.Created, nil
}

// upsertByName serves schemas without a code column, where the name is the
// only key.
func (r *warehouseRepository) upsertByName(ctx context.Context, code, name string) (domain.Warehouse, bool, error) {
	if name == "" {
		name = code
	}
	var id int64
	err := sqlx.GetContext(ctx, r.db, &id, `SELECT id FROM warehouses WHERE name = $1 ORDER BY id LIMIT 1`, name)
	created := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if err := sqlx.GetContext(ctx, r.db, &id, `INSERT INTO warehouses (name) VALUES ($1) RETURNING id`, name); err != nil {
			return domain.Warehouse{}, false, fmt.Errorf("failed to insert warehouse %s: %w", name, err)
		}
		created = true
	case err != nil:
		return domain.Warehouse{}, false, fmt.Errorf("failed to find warehouse %s: %w", name, err)
	}

	w, err := r.Get(ctx, id)
	if err != nil {
		return domain.Warehouse{}, false, err
	}
	return *w, created, nil
}

func (r *warehouseRepository) Resolve(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, nil
	}

	var id int64
	err := sqlx.GetContext(ctx, r.db, &id, `SELECT id FROM warehouses WHERE name = $1 ORDER BY id LIMIT 1`, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to find warehouse %s: %w", name, err)
	}

	if !r.caps.HasWarehouseCode {
		if err := sqlx.GetContext(ctx, r.db, &id, `INSERT INTO warehouses (name) VALUES ($1) RETURNING id`, name); err != nil {
			return 0, fmt.Errorf("failed to insert warehouse %s: %w", name, err)
		}
		return id, nil
	}

	code := domain.CodeFromName(name)
	if code == "" {
		return 0, nil
	}
	// a concurrent import may have created the same code; reuse its row
	query := `
		INSERT INTO warehouses (code, name)
		VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET code = EXCLUDED.code
		RETURNING id
	`
	if err := sqlx.GetContext(ctx, r.db, &id, query, code, name); err != nil {
		return 0, fmt.Errorf("failed to resolve warehouse %s: %w", name, err)
	}
	return id, nil
}
