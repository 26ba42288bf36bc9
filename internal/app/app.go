// Package app builds the store, cache and services shared by the binaries
// under cmd/.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andresuchdata/replenish/internal/api"
	"github.com/andresuchdata/replenish/internal/cache"
	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/pipeline"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/andresuchdata/replenish/internal/repository/postgres"
	"github.com/andresuchdata/replenish/internal/repository/sqlite"
	"github.com/andresuchdata/replenish/internal/service"
	"github.com/andresuchdata/replenish/internal/staging"
	"github.com/andresuchdata/replenish/internal/storage"
	"github.com/andresuchdata/replenish/pkg/logger"
	"github.com/rs/zerolog/log"
)

type App struct {
	Config   *config.Config
	Store    repository.Store
	Cache    cache.DashboardCache
	Location *time.Location
	Staging  *staging.Store
	// Archive is nil unless object storage is configured.
	Archive storage.ObjectStorage

	Replenishment *service.ReplenishmentService
	Planning      *service.PlanningService
	Parameters    *service.ParameterService
	Warehouses    *service.WarehouseService
	Imports       *service.ImportService
}

// ConfigureLogging applies the LOG_* settings to the global logger.
func ConfigureLogging(cfg *config.Config) {
	logger.Configure(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   true,
		JSON:       cfg.Log.JSON,
	})
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := OpenStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	dashCache := cache.NewNoopDashboardCache()
	if cfg.Cache.Enabled {
		c, err := cache.NewDashboardCache(cfg.Cache)
		if err != nil {
			log.Warn().Err(err).Msg("dashboard cache unavailable, continuing without it")
		} else {
			dashCache = c
		}
	}

	var archive storage.ObjectStorage
	if cfg.Storage.Enabled() {
		mc, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		archive = mc
	}

	loc := cfg.App.Location()
	stage := staging.New(filepath.Join(cfg.App.UploadDir, "staging"), cfg.App.StagingTTL())

	a := &App{
		Config:   cfg,
		Store:    store,
		Cache:    dashCache,
		Location: loc,
		Staging:  stage,
		Archive:  archive,
	}
	a.Replenishment = service.NewReplenishmentService(store, dashCache, cfg.Forecast, loc)
	a.Planning = service.NewPlanningService(store, cfg.Planning, loc)
	a.Parameters = service.NewParameterService(store, dashCache, a.Replenishment.Defaults())
	a.Warehouses = service.NewWarehouseService(store, dashCache)

	var opts []service.ImportOption
	if archive != nil {
		opts = append(opts, service.WithArchive(archive, cfg.Storage.Prefix))
	}
	a.Imports = service.NewImportService(store, stage, dashCache, opts...)

	return a, nil
}

// OpenStore connects the backend named by DB_DRIVER. "sqlite" opens the
// embedded file; "postgres" and "pgx" migrate the server schema and detect
// what legacy columns it has.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite dir: %w", err)
			}
		}
		return sqlite.Open(cfg.SQLitePath)
	default:
		db, err := postgres.NewDB(&cfg)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
		caps, err := postgres.DetectCapabilities(ctx, db.DB)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return postgres.NewStore(db, caps), nil
	}
}

// Orchestrator runs batch imports through the shared import service.
func (a *App) Orchestrator() *pipeline.Orchestrator {
	cfg := pipeline.DefaultConfig()
	cfg.WorkDir = a.WorkDir()
	return pipeline.NewOrchestrator(a.Store.Runs(), a.Imports, cfg)
}

// WorkDir is where batch and queued imports download their inputs.
func (a *App) WorkDir() string {
	return filepath.Join(a.Config.App.DataDir, "imports")
}

func (a *App) APIServices() *api.Services {
	return &api.Services{
		Replenishment: a.Replenishment,
		Planning:      a.Planning,
		Parameters:    a.Parameters,
		Warehouses:    a.Warehouses,
		Imports:       a.Imports,
		Runs:          a.Store.Runs(),
	}
}

// SweepStaging drops expired uploads every interval until ctx ends.
func (a *App) SweepStaging(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.Staging.Sweep(); n > 0 {
				log.Info().Int("count", n).Msg("swept expired uploads")
			}
		}
	}
}

func (a *App) Close() error {
	return a.Store.Close()
}
