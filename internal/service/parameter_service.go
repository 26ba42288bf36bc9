package service

import (
	"context"
	"strings"

	"github.com/andresuchdata/replenish/internal/cache"
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/rs/zerolog/log"
)

// ParameterListing is every stored bundle, as the parameters screen shows
// them.
type ParameterListing struct {
	Defaults  domain.Parameters            `json:"defaults"`
	Warehouse []domain.WarehouseParameters `json:"warehouse"`
	SKU       []domain.SKUParameters       `json:"sku"`
}

type ParameterService struct {
	store    repository.Store
	cache    cache.DashboardCache
	defaults domain.Parameters
}

func NewParameterService(store repository.Store, cacheImpl cache.DashboardCache, defaults domain.Parameters) *ParameterService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopDashboardCache()
	}
	return &ParameterService{store: store, cache: cacheImpl, defaults: defaults}
}

func (s *ParameterService) List(ctx context.Context) (*ParameterListing, error) {
	wh, err := s.store.Parameters().ListWarehouse(ctx)
	if err != nil {
		return nil, err
	}
	sku, err := s.store.Parameters().ListSKU(ctx)
	if err != nil {
		return nil, err
	}
	return &ParameterListing{Defaults: s.defaults, Warehouse: wh, SKU: sku}, nil
}

// Save stores a clamped bundle at SKU scope when sku is set, otherwise at
// warehouse scope.
func (s *ParameterService) Save(ctx context.Context, warehouseID int64, sku string, in domain.ParameterInput) (domain.Parameters, error) {
	if warehouseID <= 0 {
		return domain.Parameters{}, domain.Invalid("Please select a warehouse.")
	}
	if _, err := s.store.Warehouses().Get(ctx, warehouseID); err != nil {
		return domain.Parameters{}, err
	}

	p := in.Clamped()
	sku = strings.TrimSpace(sku)
	var err error
	if sku == "" {
		err = s.store.Parameters().SaveWarehouse(ctx, warehouseID, p)
	} else {
		err = s.store.Parameters().SaveSKU(ctx, warehouseID, sku, p)
	}
	if err != nil {
		return domain.Parameters{}, err
	}

	s.invalidate(ctx)
	return p, nil
}

func (s *ParameterService) Delete(ctx context.Context, warehouseID int64, sku string) error {
	sku = strings.TrimSpace(sku)
	if warehouseID <= 0 || sku == "" {
		return domain.Invalid("Warehouse and SKU are required.")
	}
	if err := s.store.Parameters().DeleteSKU(ctx, warehouseID, sku); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *ParameterService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("parameters: cache invalidate failed")
	}
}
