package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/andresuchdata/replenish/internal/cache"
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/importer"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/andresuchdata/replenish/internal/staging"
	"github.com/andresuchdata/replenish/internal/storage"
	"github.com/rs/zerolog/log"
)

// storeSink feeds importer rows into a (transaction-scoped) store.
type storeSink struct {
	store repository.Store
}

func (s storeSink) ResolveWarehouse(ctx context.Context, name string) (int64, error) {
	return s.store.Warehouses().Resolve(ctx, name)
}

func (s storeSink) InsertSales(ctx context.Context, rows []domain.SalesRow) error {
	return s.store.Sales().Insert(ctx, rows)
}

func (s storeSink) InsertStock(ctx context.Context, rows []domain.StockSnapshot) error {
	return s.store.Stock().Insert(ctx, rows)
}

type ImportService struct {
	store         repository.Store
	importer      *importer.Importer
	staging       *staging.Store
	cache         cache.DashboardCache
	archive       storage.ObjectStorage
	archivePrefix string
	now           func() time.Time
}

type ImportOption func(*ImportService)

// WithArchive copies every confirmed upload to object storage under prefix.
func WithArchive(store storage.ObjectStorage, prefix string) ImportOption {
	return func(s *ImportService) {
		s.archive = store
		s.archivePrefix = prefix
	}
}

func WithImporter(im *importer.Importer) ImportOption {
	return func(s *ImportService) {
		if im != nil {
			s.importer = im
		}
	}
}

func NewImportService(store repository.Store, stage *staging.Store, cacheImpl cache.DashboardCache, opts ...ImportOption) *ImportService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopDashboardCache()
	}
	s := &ImportService{
		store:    store,
		importer: importer.New(),
		staging:  stage,
		cache:    cacheImpl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Import runs one CSV stream inside a single transaction, so a failed
// import writes nothing. Structural problems return a result carrying the
// message together with the *importer.StructuralError.
func (s *ImportService) Import(ctx context.Context, r io.Reader, req importer.Request) (domain.ImportResult, error) {
	var res importer.Result
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		res, err = s.importer.Import(ctx, r, req, storeSink{store: tx})
		return err
	})
	if err != nil {
		if se, ok := importer.IsStructural(err); ok {
			return domain.ImportResult{Success: false, Message: se.Message}, err
		}
		return domain.ImportResult{Success: false, Message: "Import failed."}, fmt.Errorf("failed to import %s: %w", req.Kind, err)
	}

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("import: cache invalidate failed")
	}

	return domain.ImportResult{
		Success:  true,
		Message:  res.Message,
		Imported: res.Imported,
		Skipped:  res.Skipped,
	}, nil
}

// ImportFile imports a file on disk. Workbooks are converted to CSV in a
// temporary directory first.
func (s *ImportService) ImportFile(ctx context.Context, path string, req importer.Request) (domain.ImportResult, error) {
	csvPath := path
	if importer.IsSpreadsheet(path) {
		tmp, err := os.MkdirTemp("", "replenish-xlsx-*")
		if err != nil {
			return domain.ImportResult{}, fmt.Errorf("failed to create temp dir: %w", err)
		}
		defer os.RemoveAll(tmp)

		csvPath = filepath.Join(tmp, "converted.csv")
		if err := importer.ConvertXLSX(path, csvPath); err != nil {
			return domain.ImportResult{Success: false, Message: "Unable to open uploaded file."}, err
		}
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return domain.ImportResult{Success: false, Message: "Unable to open uploaded file."}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return s.Import(ctx, f, req)
}

// PreviewResult is a staged upload as the uploader sees it.
type PreviewResult struct {
	Token     string            `json:"token"`
	Kind      domain.ImportKind `json:"kind"`
	Header    []string          `json:"header"`
	Rows      [][]string        `json:"rows"`
	ColumnMap map[string]int    `json:"column_map"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// Preview stages an upload and returns its head with a suggested column
// map. An unreadable or empty file is not staged.
func (s *ImportService) Preview(ctx context.Context, kind domain.ImportKind, r io.Reader, meta staging.Meta) (*PreviewResult, error) {
	if n := s.staging.Sweep(); n > 0 {
		log.Info().Int("count", n).Msg("import: swept expired uploads")
	}

	if meta.WarehouseID != nil {
		if _, err := s.store.Warehouses().Get(ctx, *meta.WarehouseID); err != nil {
			return nil, err
		}
	}

	u, err := s.staging.Put(kind, r, meta)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(u.Path)
	if err != nil {
		_ = s.staging.Cancel(u.Token)
		return nil, fmt.Errorf("failed to open staged upload: %w", err)
	}
	defer f.Close()

	table, err := importer.Preview(f, 0)
	if err != nil {
		_ = s.staging.Cancel(u.Token)
		return nil, err
	}

	return &PreviewResult{
		Token:     u.Token,
		Kind:      kind,
		Header:    table.Header,
		Rows:      table.Rows,
		ColumnMap: importer.SuggestColumnMap(kind, table.Header),
		ExpiresAt: u.ExpiresAt,
	}, nil
}

// ConfirmRequest completes a staged upload. Zero fields fall back to what
// was given at preview time.
type ConfirmRequest struct {
	Token        string         `json:"token"`
	ColumnMap    map[string]int `json:"column_map"`
	WarehouseID  *int64         `json:"warehouse_id"`
	SnapshotDate string         `json:"snapshot_date"`
}

// Confirm imports a staged upload and consumes its token whatever the
// outcome.
func (s *ImportService) Confirm(ctx context.Context, kind domain.ImportKind, req ConfirmRequest) (domain.ImportResult, error) {
	u, err := s.staging.Take(req.Token)
	if err != nil {
		return domain.ImportResult{Success: false, Message: "Upload session expired. Please upload the file again."}, err
	}
	defer s.staging.Release(u)

	if u.Kind != kind {
		return domain.ImportResult{Success: false, Message: "Unsupported import type."}, domain.Invalid("Unsupported import type.")
	}

	ireq := importer.Request{
		Kind:         kind,
		WarehouseID:  u.WarehouseID,
		ColumnMap:    req.ColumnMap,
		SnapshotDate: u.SnapshotDate,
	}
	if req.WarehouseID != nil {
		ireq.WarehouseID = req.WarehouseID
	}
	if req.SnapshotDate != "" {
		ireq.SnapshotDate = req.SnapshotDate
	}
	if ireq.ColumnMap != nil {
		if ireq.WarehouseID == nil {
			return domain.ImportResult{Success: false, Message: "Please select a warehouse."}, domain.Invalid("Please select a warehouse.")
		}
		if _, err := s.store.Warehouses().Get(ctx, *ireq.WarehouseID); err != nil {
			return domain.ImportResult{Success: false, Message: "Selected warehouse not found."}, err
		}
	}

	data, err := os.ReadFile(u.Path)
	if err != nil {
		return domain.ImportResult{Success: false, Message: "Unable to open uploaded file."}, fmt.Errorf("failed to read staged upload: %w", err)
	}

	res, err := s.Import(ctx, bytes.NewReader(data), ireq)
	if err != nil {
		return res, err
	}

	s.archiveUpload(ctx, kind, u.Token, data)
	return res, nil
}

func (s *ImportService) Cancel(token string) error {
	return s.staging.Cancel(token)
}

// archiveUpload is best effort: a failure is logged and the import stands.
func (s *ImportService) archiveUpload(ctx context.Context, kind domain.ImportKind, token string, data []byte) {
	if s.archive == nil {
		return
	}
	key := storage.ArchiveKey(s.archivePrefix, kind, s.now(), token)
	if err := s.archive.UploadObject(ctx, key, data); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("import: archive upload failed")
		return
	}
	log.Info().Str("key", key).Msg("import: archived upload")
}
