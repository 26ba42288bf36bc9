package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/importer"
	"github.com/andresuchdata/replenish/internal/pipeline"
	"github.com/rs/zerolog/log"
)

// IngestService imports Drive files through the regular import path.
type IngestService struct {
	client       Client
	importer     pipeline.FileImporter
	orchestrator *pipeline.Orchestrator
	folderID     string
	workDir      string
}

func NewIngestService(client Client, im pipeline.FileImporter, orchestrator *pipeline.Orchestrator, folderID, workDir string) *IngestService {
	return &IngestService{
		client:       client,
		importer:     im,
		orchestrator: orchestrator,
		folderID:     folderID,
		workDir:      workDir,
	}
}

// IngestFile downloads one file and imports it in header mode. An empty
// kind is taken from the file name (sales_* or stock_*).
func (s *IngestService) IngestFile(ctx context.Context, fileID string, kind domain.ImportKind) (domain.ImportResult, error) {
	f, err := s.client.GetFile(ctx, fileID)
	if err != nil {
		return domain.ImportResult{}, err
	}
	if kind == "" {
		sf, ok := pipeline.Classify(f.Name)
		if !ok {
			return domain.ImportResult{Success: false, Message: "Unsupported import type."},
				domain.Invalid("Unsupported import type.")
		}
		kind = sf.Kind
	}

	if err := os.MkdirAll(s.workDir, 0o755); err != nil {
		return domain.ImportResult{}, fmt.Errorf("failed to create work dir: %w", err)
	}
	tmp, err := os.MkdirTemp(s.workDir, "drive-*")
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	local := filepath.Join(tmp, filepath.Base(f.Name))
	out, err := os.Create(local)
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("failed to create local file %s: %w", local, err)
	}
	if err := s.client.DownloadFile(ctx, fileID, out); err != nil {
		out.Close()
		return domain.ImportResult{}, fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	if err := out.Close(); err != nil {
		return domain.ImportResult{}, err
	}

	res, err := s.importer.ImportFile(ctx, local, importer.Request{Kind: kind})
	if err != nil {
		return res, err
	}
	log.Info().Str("file_id", fileID).Str("name", f.Name).Int("imported", res.Imported).Msg("drive file ingested")
	return res, nil
}

// IngestFolder runs the batch pipeline over a folder, the configured one
// when folderID is empty.
func (s *IngestService) IngestFolder(ctx context.Context, folderID string) (*domain.ImportRun, error) {
	if folderID == "" {
		folderID = s.folderID
	}
	return s.orchestrator.Run(ctx, NewFolderStorage(s.client, folderID), "", "drive:"+folderID)
}
