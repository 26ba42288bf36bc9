package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/importer"
	"github.com/andresuchdata/replenish/internal/pipeline"
	"github.com/andresuchdata/replenish/internal/storage"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// DriveIngester is implemented by drive.IngestService.
type DriveIngester interface {
	IngestFile(ctx context.Context, fileID string, kind domain.ImportKind) (domain.ImportResult, error)
}

// Processor consumes import tasks. Either dependency may be nil, in which
// case its tasks fail without retry.
type Processor struct {
	drive    DriveIngester
	objects  storage.ObjectStorage
	importer pipeline.FileImporter
	workDir  string
}

func NewProcessor(drive DriveIngester, objects storage.ObjectStorage, im pipeline.FileImporter, workDir string) *Processor {
	return &Processor{drive: drive, objects: objects, importer: im, workDir: workDir}
}

func (p *Processor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskImportDriveFile, p.handleDriveFile)
	mux.HandleFunc(TaskImportObject, p.handleObject)
}

func (p *Processor) handleDriveFile(ctx context.Context, task *asynq.Task) error {
	var payload DriveFilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.FileID == "" {
		return fmt.Errorf("missing file id: %w", asynq.SkipRetry)
	}
	if p.drive == nil {
		return fmt.Errorf("drive ingestion is not configured: %w", asynq.SkipRetry)
	}

	res, err := p.drive.IngestFile(ctx, payload.FileID, payload.Kind)
	if err != nil {
		return retryable(err)
	}
	log.Info().Str("file_id", payload.FileID).Int("imported", res.Imported).Int("skipped", res.Skipped).Msg("drive task done")
	return nil
}

func (p *Processor) handleObject(ctx context.Context, task *asynq.Task) error {
	var payload ObjectPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}
	kind, ok := domain.ParseImportKind(string(payload.Kind))
	if payload.Key == "" || !ok {
		return fmt.Errorf("invalid object task %+v: %w", payload, asynq.SkipRetry)
	}
	if p.objects == nil || p.importer == nil {
		return fmt.Errorf("object storage is not configured: %w", asynq.SkipRetry)
	}

	if err := os.MkdirAll(p.workDir, 0o755); err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}
	tmp, err := os.MkdirTemp(p.workDir, "object-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	local := filepath.Join(tmp, filepath.Base(payload.Key))
	if err := p.objects.DownloadObject(ctx, payload.Key, local); err != nil {
		return err
	}
	res, err := p.importer.ImportFile(ctx, local, importer.Request{Kind: kind})
	if err != nil {
		return retryable(err)
	}
	log.Info().Str("key", payload.Key).Int("imported", res.Imported).Int("skipped", res.Skipped).Msg("object task done")
	return nil
}

// retryable stops retries for failures another attempt cannot fix.
func retryable(err error) error {
	if _, ok := importer.IsStructural(err); ok || errors.Is(err, domain.ErrInvalidInput) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}
