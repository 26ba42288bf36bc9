package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/jmoiron/sqlx"
)

// Store serves every repository from one pool, or from one transaction when
// obtained through WithinTx.
type Store struct {
	db   *DB
	ext  sqlx.ExtContext
	caps repository.Capabilities
}

func NewStore(db *DB, caps repository.Capabilities) *Store {
	return &Store{db: db, ext: db.DB, caps: caps}
}

func (s *Store) Warehouses() repository.WarehouseRepository {
	return NewWarehouseRepository(s.ext, s.caps)
}

func (s *Store) Sales() repository.SalesRepository {
	return NewSalesRepository(s.ext)
}

func (s *Store) Stock() repository.StockRepository {
	return NewStockRepository(s.ext, s.caps)
}

func (s *Store) Parameters() repository.ParameterRepository {
	return NewParameterRepository(s.ext, s.caps)
}

func (s *Store) Runs() repository.ImportRunRepository {
	return NewImportRunRepository(s.ext)
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if _, ok := s.ext.(*sqlx.Tx); ok {
		return fn(s)
	}
	return s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&Store{db: s.db, ext: tx, caps: s.caps})
	})
}

// Close releases the pool. It is a no-op on a transaction-scoped Store.
func (s *Store) Close() error {
	if _, ok := s.ext.(*sqlx.Tx); ok {
		return nil
	}
	return s.db.Close()
}

// placeholders renders "($1, $2), ($3, $4)" for rows×cols arguments
// starting at $start.
func placeholders(rows, cols, start int) string {
	var b strings.Builder
	argCounter := start
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", argCounter)
			argCounter++
		}
		b.WriteByte(')')
	}
	return b.String()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
