// Package pipeline imports every sales and stock file found under an object
// storage prefix, recording progress in import_runs and import_files.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/andresuchdata/replenish/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Orchestrator coordinates importing a set of files grouped by the date in
// their names.
type Orchestrator struct {
	runs     repository.ImportRunRepository
	importer FileImporter
	cfg      Config
	now      func() time.Time
	newID    func() string
}

func NewOrchestrator(runs repository.ImportRunRepository, im FileImporter, cfg Config) *Orchestrator {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = DefaultConfig().WorkDir
	}
	return &Orchestrator{
		runs:     runs,
		importer: im,
		cfg:      cfg,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Run imports every recognized file under prefix. Days are processed in
// ascending order; undated files go last. A file that fails to import marks
// the run failed but does not stop the others.
func (o *Orchestrator) Run(ctx context.Context, src storage.ObjectStorage, prefix, label string) (*domain.ImportRun, error) {
	objects, err := src.ListObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	var files []SourceFile
	for _, obj := range objects {
		if f, ok := Classify(obj.Key); ok {
			files = append(files, f)
		}
	}

	run := &domain.ImportRun{
		ID:         o.newID(),
		Source:     label,
		Status:     domain.RunRunning,
		FilesTotal: len(files),
		StartedAt:  o.now(),
	}
	if err := o.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create import run: %w", err)
	}

	log.Info().Str("run_id", run.ID).Str("source", label).Int("files", len(files)).Msg("import run started")

	defer func() {
		if err := os.RemoveAll(filepath.Join(o.cfg.WorkDir, run.ID)); err != nil {
			log.Warn().Err(err).Str("run_id", run.ID).Msg("failed to clean work dir")
		}
	}()

	w := newWorker(o, src, run)
	for _, g := range groupByDate(files) {
		if err := w.processGroup(ctx, g); err != nil {
			o.finish(ctx, run, err)
			return run, err
		}
	}

	o.finish(ctx, run, w.firstFailure())
	return run, nil
}

func (o *Orchestrator) finish(ctx context.Context, run *domain.ImportRun, failure error) {
	now := o.now()
	run.FinishedAt = &now
	run.Status = domain.RunCompleted
	if failure != nil {
		run.Status = domain.RunFailed
		msg := failure.Error()
		run.Error = &msg
	}
	if err := o.runs.UpdateRun(ctx, run); err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Msg("failed to finalize import run")
	}
	log.Info().
		Str("run_id", run.ID).
		Str("status", string(run.Status)).
		Int("files_done", run.FilesDone).
		Int("files_total", run.FilesTotal).
		Msg("import run finished")
}

func groupByDate(files []SourceFile) []dateGroup {
	byDate := make(map[time.Time]*dateGroup)
	for _, f := range files {
		g, ok := byDate[f.Date]
		if !ok {
			g = &dateGroup{Date: f.Date}
			byDate[f.Date] = g
		}
		if f.Kind == domain.ImportSales {
			g.Sales = append(g.Sales, f)
		} else {
			g.Stock = append(g.Stock, f)
		}
	}

	out := make([]dateGroup, 0, len(byDate))
	for _, g := range byDate {
		sort.Slice(g.Sales, func(i, j int) bool { return g.Sales[i].Key < g.Sales[j].Key })
		sort.Slice(g.Stock, func(i, j int) bool { return g.Stock[i].Key < g.Stock[j].Key })
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Date, out[j].Date
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		return a.Before(b)
	})
	return out
}
