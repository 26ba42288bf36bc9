// Package sqlite is the embedded backend: the same repositories as the
// Postgres store, on gorm with the pure-Go SQLite driver. The CLI uses it
// for local runs and every service test runs against it.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db   *gorm.DB
	inTx bool
}

// busyTimeout is how long a writer waits on a locked database before
// SQLITE_BUSY.
const busyTimeout = "_pragma=busy_timeout(5000)"

// Open opens (or creates) the database at dsn and migrates it. dsn is a
// file path or a "file:...?mode=memory" URI. Writers share one connection
// so parallel batch imports queue instead of failing on the file lock.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(withBusyTimeout(dsn)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", dsn, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", dsn, err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(allModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

func withBusyTimeout(dsn string) string {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + busyTimeout
	}
	return dsn + "?" + busyTimeout
}

// New wraps an existing gorm handle, migrating it first.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Warehouses() repository.WarehouseRepository {
	return &warehouseRepository{db: s.db}
}

func (s *Store) Sales() repository.SalesRepository {
	return &salesRepository{db: s.db}
}

func (s *Store) Stock() repository.StockRepository {
	return &stockRepository{db: s.db}
}

func (s *Store) Parameters() repository.ParameterRepository {
	return &parameterRepository{db: s.db}
}

func (s *Store) Runs() repository.ImportRunRepository {
	return &importRunRepository{db: s.db}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, inTx: true})
	})
}

func (s *Store) Close() error {
	if s.inTx {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
