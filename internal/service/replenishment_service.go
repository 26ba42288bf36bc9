package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/replenish/internal/cache"
	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/forecast"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/rs/zerolog/log"
)

type ReplenishmentService struct {
	store repository.Store
	cache cache.DashboardCache
	cfg   config.ForecastConfig
	loc   *time.Location
	now   func() time.Time
}

func NewReplenishmentService(store repository.Store, cacheImpl cache.DashboardCache, cfg config.ForecastConfig, loc *time.Location) *ReplenishmentService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopDashboardCache()
	}
	return &ReplenishmentService{store: store, cache: cacheImpl, cfg: cfg, loc: loc, now: time.Now}
}

// Defaults is the process-wide parameter bundle.
func (s *ReplenishmentService) Defaults() domain.Parameters {
	return domain.Parameters{
		DaysToCover:  s.cfg.DaysToCover,
		MAWindowDays: s.cfg.MAWindowDays,
		MinAvgDaily:  s.cfg.MinAvgDaily,
		SafetyDays:   s.cfg.SafetyDays,
	}
}

// Options turns a filter into smoothing options. Unset windows take the
// configured defaults. Once any window is explicit, the lookback is the
// widest of the resolved windows; otherwise the configured lookback
// applies.
func (s *ReplenishmentService) Options(filter domain.DashboardFilter) forecast.SmoothingOptions {
	strategy := domain.ParseStrategy(s.cfg.DefaultMethod)
	if filter.Strategy != "" {
		strategy = domain.ParseStrategy(string(filter.Strategy))
	}

	opts := forecast.SmoothingOptions{
		Strategy:     strategy,
		ShortWindow:  filter.ShortWindow,
		LongWindow:   filter.LongWindow,
		Span:         filter.Span,
		ChartMaxDays: s.cfg.ChartMaxDays,
	}
	explicit := opts.ShortWindow > 0 || opts.LongWindow > 0 || opts.Span > 0

	if opts.ShortWindow <= 0 {
		opts.ShortWindow = s.cfg.ShortWindow
	}
	if opts.LongWindow <= 0 {
		opts.LongWindow = s.cfg.LongWindow
	}
	if opts.Span <= 0 {
		opts.Span = s.cfg.Span
	}

	windows := opts
	if !explicit {
		windows.ShortWindow, windows.LongWindow, windows.Span = 0, 0, 0
	}
	opts.LookbackDays = forecast.LookbackDays(s.cfg.LookbackDays, windows)

	if filter.Alpha != nil {
		opts.Alpha = *filter.Alpha
	} else {
		opts.Alpha = forecast.SpanAlpha(opts.Span)
	}
	return opts
}

// Dashboard computes the replenishment table. Everything is loaded in five
// queries regardless of the number of lines.
func (s *ReplenishmentService) Dashboard(ctx context.Context, filter domain.DashboardFilter) (*domain.DashboardResult, error) {
	today := businessDay(s.now(), s.loc)

	if result, ok, err := s.cache.Get(ctx, filter, today); err == nil && ok {
		return result, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("replenishment: cache get dashboard failed")
	}

	calc := forecast.NewCalculator(s.Options(filter))
	defaults := s.Defaults()

	warehouses, err := s.store.Warehouses().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load warehouses: %w", err)
	}

	params, err := s.store.Parameters().Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load parameters: %w", err)
	}

	snaps, err := s.store.Stock().Latest(ctx, domain.StockFilter{WarehouseID: filter.WarehouseID, Search: filter.Search})
	if err != nil {
		return nil, fmt.Errorf("failed to load stock: %w", err)
	}

	resolved := forecast.ResolveSearch(filter.Search, snaps, params.SKU)
	horizon := calc.SalesHorizon(defaults, params)
	query := forecast.SalesQueryFor(domain.SalesQuery{
		Since:       today.AddDate(0, 0, -(horizon - 1)),
		Until:       today,
		WarehouseID: filter.WarehouseID,
	}, filter.Search, resolved)

	sales, err := s.store.Sales().Daily(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}

	result := calc.Dashboard(forecast.DashboardInput{
		WarehouseID: filter.WarehouseID,
		Search:      filter.Search,
		Defaults:    defaults,
		Warehouses:  warehouseIndex(warehouses),
		Params:      params,
		Stock:       forecast.LatestStock(snaps),
		Sales:       forecast.Aggregate(sales),
		Today:       today,
	})

	if err := s.cache.Set(ctx, filter, today, &result); err != nil {
		log.Warn().Err(err).Msg("replenishment: cache set dashboard failed")
	}

	log.Debug().
		Int("items", result.Summary.TotalItems).
		Str("strategy", string(result.Summary.Strategy)).
		Int("horizon_days", horizon).
		Msg("dashboard computed")

	return &result, nil
}

func warehouseIndex(list []domain.Warehouse) map[int64]domain.Warehouse {
	out := make(map[int64]domain.Warehouse, len(list))
	for _, w := range list {
		out[w.ID] = w
	}
	return out
}
