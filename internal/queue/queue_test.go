package queue

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/importer"
	"github.com/andresuchdata/replenish/internal/storage"
	"github.com/hibiken/asynq"
)

func TestDisabledClientIsNoop(t *testing.T) {
	c, err := NewClient(config.QueueConfig{Enabled: false}, config.CacheConfig{})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if c.Enabled() {
		t.Fatalf("disabled client reports enabled")
	}
	queued, err := c.EnqueueDriveFile(context.Background(), "f1", "")
	if err != nil || queued {
		t.Fatalf("enqueue = %v, %v; want false, nil", queued, err)
	}
	if queued, _ := c.EnqueueObject(context.Background(), "k", domain.ImportSales); queued {
		t.Fatalf("object enqueue ran while disabled")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestRedisOptAndServerConfig(t *testing.T) {
	opt, cfg, err := BuildServerConfig(config.QueueConfig{Concurrency: 7}, config.CacheConfig{RedisHost: "redis", RedisPort: "6380", RedisDB: 2})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if opt.Addr != "redis:6380" || opt.DB != 2 {
		t.Fatalf("redis opt = %+v", opt)
	}
	if cfg.Concurrency != 7 || cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("server config = %+v", cfg)
	}

	if _, err := RedisOpt(config.CacheConfig{RedisURL: "://bad"}); err == nil {
		t.Fatalf("expected error for a bad url")
	}
}

func TestTaskPayloads(t *testing.T) {
	task, err := NewDriveFileTask(DriveFilePayload{FileID: "f1", Kind: domain.ImportStock})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskImportDriveFile {
		t.Fatalf("type = %s", task.Type())
	}
	var p DriveFilePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil || p.FileID != "f1" || p.Kind != domain.ImportStock {
		t.Fatalf("payload = %+v, %v", p, err)
	}
}

type stubDrive struct {
	err error
	got string
}

func (s *stubDrive) IngestFile(_ context.Context, fileID string, _ domain.ImportKind) (domain.ImportResult, error) {
	s.got = fileID
	return domain.ImportResult{Success: s.err == nil}, s.err
}

type stubImporter struct {
	body string
	kind domain.ImportKind
}

func (s *stubImporter) ImportFile(_ context.Context, path string, req importer.Request) (domain.ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ImportResult{}, err
	}
	s.body, s.kind = string(data), req.Kind
	return domain.ImportResult{Success: true, Imported: 1}, nil
}

func TestProcessorDriveFile(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		payload   string
		drive     *stubDrive
		wantErr   bool
		skipRetry bool
	}{
		{"ok", `{"file_id":"f1"}`, &stubDrive{}, false, false},
		{"bad json", `{`, &stubDrive{}, true, true},
		{"missing id", `{}`, &stubDrive{}, true, true},
		{"structural", `{"file_id":"f1"}`, &stubDrive{err: &importer.StructuralError{Message: "CSV file is empty."}}, true, true},
		{"transient", `{"file_id":"f1"}`, &stubDrive{err: errors.New("timeout")}, true, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewProcessor(tc.drive, nil, nil, t.TempDir())
			err := p.handleDriveFile(ctx, asynq.NewTask(TaskImportDriveFile, []byte(tc.payload)))
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if errors.Is(err, asynq.SkipRetry) != tc.skipRetry {
				t.Fatalf("skip retry = %v, want %v (%v)", errors.Is(err, asynq.SkipRetry), tc.skipRetry, err)
			}
		})
	}
}

func TestProcessorObject(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "drop"), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "drop", "stock.csv"), []byte("sku\n"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	im := &stubImporter{}
	p := NewProcessor(nil, storage.NewLocalStorage(root), im, t.TempDir())

	task, _ := NewObjectTask(ObjectPayload{Key: "drop/stock.csv", Kind: domain.ImportStock})
	if err := p.handleObject(ctx, task); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if im.body != "sku\n" || im.kind != domain.ImportStock {
		t.Fatalf("imported %q as %s", im.body, im.kind)
	}

	bad, _ := NewObjectTask(ObjectPayload{Key: "drop/stock.csv", Kind: "orders"})
	if err := p.handleObject(ctx, bad); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("bad kind err = %v, want SkipRetry", err)
	}
}
