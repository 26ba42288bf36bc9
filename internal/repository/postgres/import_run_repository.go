package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/jmoiron/sqlx"
)

type importRunRepository struct {
	db sqlx.ExtContext
}

func NewImportRunRepository(db sqlx.ExtContext) repository.ImportRunRepository {
	return &importRunRepository{db: db}
}

func (r *importRunRepository) CreateRun(ctx context.Context, run *domain.ImportRun) error {
	query := `
		INSERT INTO import_runs (id, source, status, files_total, files_done, error, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, query, run.ID, run.Source, run.Status, run.FilesTotal, run.FilesDone, run.Error, run.StartedAt); err != nil {
		return fmt.Errorf("failed to create import run: %w", err)
	}
	return nil
}

func (r *importRunRepository) UpdateRun(ctx context.Context, run *domain.ImportRun) error {
	query := `
		UPDATE import_runs
		SET status = $2, files_total = $3, files_done = $4, error = $5, finished_at = $6
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, run.ID, run.Status, run.FilesTotal, run.FilesDone, run.Error, run.FinishedAt); err != nil {
		return fmt.Errorf("failed to update import run %s: %w", run.ID, err)
	}
	return nil
}

func (r *importRunRepository) GetRun(ctx context.Context, id string) (*domain.ImportRun, error) {
	var run domain.ImportRun
	query := `SELECT id, source, status, files_total, files_done, error, started_at, finished_at FROM import_runs WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.db, &run, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get import run %s: %w", id, err)
	}
	return &run, nil
}

func (r *importRunRepository) ListRuns(ctx context.Context, limit int) ([]domain.ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []domain.ImportRun
	query := `
		SELECT id, source, status, files_total, files_done, error, started_at, finished_at
		FROM import_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	if err := sqlx.SelectContext(ctx, r.db, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list import runs: %w", err)
	}
	return runs, nil
}

func (r *importRunRepository) AddFile(ctx context.Context, f *domain.ImportFile) error {
	query := `
		INSERT INTO import_files (run_id, name, kind, status, imported, skipped, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	if err := sqlx.GetContext(ctx, r.db, &f.ID, query, f.RunID, f.Name, f.Kind, f.Status, f.Imported, f.Skipped, f.Error, f.StartedAt, f.FinishedAt); err != nil {
		return fmt.Errorf("failed to add import file %s: %w", f.Name, err)
	}
	return nil
}

func (r *importRunRepository) UpdateFile(ctx context.Context, f *domain.ImportFile) error {
	query := `
		UPDATE import_files
		SET status = $2, imported = $3, skipped = $4, error = $5, started_at = $6, finished_at = $7
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, f.ID, f.Status, f.Imported, f.Skipped, f.Error, f.StartedAt, f.FinishedAt); err != nil {
		return fmt.Errorf("failed to update import file %d: %w", f.ID, err)
	}
	return nil
}

func (r *importRunRepository) ListFiles(ctx context.Context, runID string) ([]domain.ImportFile, error) {
	var files []domain.ImportFile
	query := `
		SELECT id, run_id, name, kind, status, imported, skipped, error, started_at, finished_at
		FROM import_files
		WHERE run_id = $1
		ORDER BY id
	`
	if err := sqlx.SelectContext(ctx, r.db, &files, query, runID); err != nil {
		return nil, fmt.Errorf("failed to list import files: %w", err)
	}
	return files, nil
}
