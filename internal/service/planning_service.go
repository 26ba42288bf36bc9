package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/forecast"
	"github.com/andresuchdata/replenish/internal/repository"
)

type PlanningService struct {
	store repository.Store
	cfg   config.PlanningConfig
	loc   *time.Location
	now   func() time.Time
}

func NewPlanningService(store repository.Store, cfg config.PlanningConfig, loc *time.Location) *PlanningService {
	return &PlanningService{store: store, cfg: cfg, loc: loc, now: time.Now}
}

func (s *PlanningService) Plan(ctx context.Context, req domain.PlanningRequest) (*domain.PlanningResult, error) {
	today := businessDay(s.now(), s.loc)

	warehouses, err := s.store.Warehouses().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load warehouses: %w", err)
	}
	index := warehouseIndex(warehouses)

	window, warnings := forecast.ResolvePlanningWindow(req, today, forecast.PlanningDefaults{
		SafetyDays:   s.cfg.SafetyDays,
		ShippingDays: s.cfg.ShippingDays,
		BufferDays:   s.cfg.BufferDays,
		Alpha:        s.cfg.Alpha,
	}, index)

	snaps, err := s.store.Stock().Latest(ctx, domain.StockFilter{WarehouseID: window.WarehouseID})
	if err != nil {
		return nil, fmt.Errorf("failed to load stock: %w", err)
	}

	sales, err := s.store.Sales().Daily(ctx, domain.SalesQuery{
		Since:       window.Start,
		Until:       window.End,
		WarehouseID: window.WarehouseID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}

	result := forecast.Plan(forecast.PlanningInput{
		Window:     window,
		Warehouses: index,
		Stock:      forecast.LatestStock(snaps),
		Sales:      forecast.Aggregate(sales),
		Today:      today,
	})
	result.Warnings = warnings
	return &result, nil
}
