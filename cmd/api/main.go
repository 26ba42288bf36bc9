// cmd/api/main.go serves the Google Drive ingestion endpoints.
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/andresuchdata/replenish/internal/app"
	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/drive"
	"github.com/andresuchdata/replenish/internal/queue"
	"github.com/andresuchdata/replenish/pkg/logger"
	"github.com/gorilla/mux"
)

func main() {
	// Load configuration
	cfg := config.Load()
	app.ConfigureLogging(cfg)

	ctx := context.Background()

	// Initialize Google Drive service
	driveService, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize Google Drive service")
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	queueClient, err := queue.NewClient(cfg.Queue, cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize task queue")
	}
	defer queueClient.Close()

	// Initialize Services
	ingestService := drive.NewIngestService(driveService, a.Imports, a.Orchestrator(), cfg.Drive.FolderID, a.WorkDir())

	// Register routes
	r := mux.NewRouter()
	driveHandler := drive.NewHandler(driveService, driveService, ingestService, queueClient)
	driveHandler.RegisterRoutes(r)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	logger.Log.Info().Str("addr", addr).Bool("queue", queueClient.Enabled()).Msg("Drive server starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Log.Fatal().Err(err).Msg("Drive server stopped")
	}
}
