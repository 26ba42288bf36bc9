package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/importer"
	"github.com/andresuchdata/replenish/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// progress guards the state shared by concurrent file imports.
type progress struct {
	mu      sync.Mutex
	failure error
}

// worker imports the files of one run.
type worker struct {
	o    *Orchestrator
	src  storage.ObjectStorage
	run  *domain.ImportRun
	prog progress
}

func newWorker(o *Orchestrator, src storage.ObjectStorage, run *domain.ImportRun) *worker {
	return &worker{o: o, src: src, run: run}
}

// processGroup runs the sales files of one day, then its stock files. Only
// bookkeeping errors and cancellation abort the run.
func (w *worker) processGroup(ctx context.Context, g dateGroup) error {
	day := "undated"
	if !g.Date.IsZero() {
		day = g.Date.Format("2006-01-02")
	}
	log.Info().Str("run_id", w.run.ID).Str("date", day).
		Int("sales", len(g.Sales)).Int("stock", len(g.Stock)).Msg("processing batch")

	for _, batch := range [][]SourceFile{g.Sales, g.Stock} {
		if err := w.processParallel(ctx, batch); err != nil {
			return fmt.Errorf("failed to process batch for %s: %w", day, err)
		}
	}
	return nil
}

func (w *worker) processParallel(ctx context.Context, files []SourceFile) error {
	if len(files) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.o.cfg.WorkerCount)
	for _, f := range files {
		f := f
		g.Go(func() error {
			return w.processFile(gctx, f)
		})
	}
	return g.Wait()
}

func (w *worker) processFile(ctx context.Context, f SourceFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := w.o.now()
	job := &domain.ImportFile{
		RunID:     w.run.ID,
		Name:      f.Name,
		Kind:      f.Kind,
		Status:    domain.RunRunning,
		StartedAt: &start,
	}
	if err := w.o.runs.AddFile(ctx, job); err != nil {
		return fmt.Errorf("failed to record file %s: %w", f.Name, err)
	}

	res, importErr := w.importOne(ctx, f)

	finished := w.o.now()
	job.FinishedAt = &finished
	job.Imported, job.Skipped = res.Imported, res.Skipped
	if importErr != nil {
		job.Status = domain.RunFailed
		msg := importErr.Error()
		if res.Message != "" {
			msg = res.Message
		}
		job.Error = &msg
		log.Warn().Err(importErr).Str("file", f.Key).Msg("file import failed")
	} else {
		job.Status = domain.RunCompleted
		log.Info().Str("file", f.Key).Int("imported", res.Imported).Int("skipped", res.Skipped).
			Dur("took", time.Since(start)).Msg("file imported")
	}
	if err := w.o.runs.UpdateFile(ctx, job); err != nil {
		return fmt.Errorf("failed to update file %s: %w", f.Name, err)
	}

	w.prog.mu.Lock()
	defer w.prog.mu.Unlock()
	w.run.FilesDone++
	if importErr != nil && w.prog.failure == nil {
		w.prog.failure = fmt.Errorf("%s: %w", f.Name, importErr)
	}
	if err := w.o.runs.UpdateRun(ctx, w.run); err != nil {
		log.Warn().Err(err).Str("run_id", w.run.ID).Msg("failed to update run progress")
	}
	return nil
}

// importOne downloads f into the work directory and imports it.
func (w *worker) importOne(ctx context.Context, f SourceFile) (domain.ImportResult, error) {
	dir := filepath.Join(w.o.cfg.WorkDir, w.run.ID)
	local := filepath.Join(dir, filepath.FromSlash(f.Key))
	if err := w.src.DownloadObject(ctx, f.Key, local); err != nil {
		return domain.ImportResult{}, fmt.Errorf("failed to download %s: %w", f.Key, err)
	}
	defer func() {
		if err := os.Remove(local); err != nil {
			log.Warn().Err(err).Str("path", local).Msg("failed to remove downloaded file")
		}
	}()

	return w.o.importer.ImportFile(ctx, local, importer.Request{Kind: f.Kind})
}

func (w *worker) firstFailure() error {
	w.prog.mu.Lock()
	defer w.prog.mu.Unlock()
	return w.prog.failure
}
