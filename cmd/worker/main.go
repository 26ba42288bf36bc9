// cmd/worker/main.go consumes queued import tasks.
package main

import (
	"context"

	"github.com/andresuchdata/replenish/internal/app"
	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/drive"
	"github.com/andresuchdata/replenish/internal/queue"
	"github.com/andresuchdata/replenish/pkg/logger"
	"github.com/hibiken/asynq"
)

func main() {
	cfg := config.Load()
	app.ConfigureLogging(cfg)

	if !cfg.Queue.Enabled {
		logger.Log.Fatal().Msg("QUEUE_ENABLED is false, nothing to consume")
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	var ingester queue.DriveIngester
	if cfg.Drive.CredentialsJSON != "" {
		driveService, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize Google Drive service")
		}
		ingester = drive.NewIngestService(driveService, a.Imports, a.Orchestrator(), cfg.Drive.FolderID, a.WorkDir())
	} else {
		logger.Log.Warn().Msg("Drive credentials missing, drive tasks will be dropped")
	}

	opt, serverCfg, err := queue.BuildServerConfig(cfg.Queue, cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to build queue config")
	}
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	queue.NewProcessor(ingester, a.Archive, a.Imports, a.WorkDir()).Register(mux)

	logger.Log.Info().Int("concurrency", serverCfg.Concurrency).Msg("Worker starting")
	if err := server.Run(mux); err != nil {
		logger.Log.Fatal().Err(err).Msg("Worker stopped")
	}
}
