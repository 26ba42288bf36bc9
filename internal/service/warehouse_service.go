package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/andresuchdata/replenish/internal/cache"
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/rs/zerolog/log"
)

type WarehouseService struct {
	store repository.Store
	cache cache.DashboardCache
}

func NewWarehouseService(store repository.Store, cacheImpl cache.DashboardCache) *WarehouseService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopDashboardCache()
	}
	return &WarehouseService{store: store, cache: cacheImpl}
}

func (s *WarehouseService) List(ctx context.Context) ([]domain.Warehouse, error) {
	return s.store.Warehouses().List(ctx)
}

// Upsert creates or renames the warehouse with the given code. The code is
// upper-cased; an empty name keeps the current one.
func (s *WarehouseService) Upsert(ctx context.Context, code, name string) (domain.Warehouse, bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = strings.TrimSpace(name)

	if code == "" {
		return domain.Warehouse{}, false, domain.Invalid("Warehouse code is required.")
	}
	if utf8.RuneCountInString(code) > domain.MaxWarehouseCodeLen {
		return domain.Warehouse{}, false, domain.Invalid("Warehouse code must be 50 characters or fewer.")
	}
	if utf8.RuneCountInString(name) > domain.MaxWarehouseNameLen {
		return domain.Warehouse{}, false, domain.Invalid("Warehouse name must be 120 characters or fewer.")
	}

	w, created, err := s.store.Warehouses().Upsert(ctx, code, name)
	if err != nil {
		return domain.Warehouse{}, false, err
	}

	// Dashboards carry warehouse names and sort on them.
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("warehouses: cache invalidate failed")
	}
	return w, created, nil
}

// UpsertMessage is the confirmation shown after Upsert.
func UpsertMessage(created bool) string {
	if created {
		return "Warehouse created."
	}
	return "Warehouse updated."
}
