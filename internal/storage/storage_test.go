package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
)

func TestArchiveKey(t *testing.T) {
	day := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	got := ArchiveKey("/replenish/", domain.ImportStock, day, "abc")
	if got != "replenish/stock/2024-03-05/abc.csv" {
		t.Fatalf("ArchiveKey = %q", got)
	}
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		ssl    bool
		host   string
		secure bool
	}{
		{"https://s3.example.com", false, "s3.example.com", true},
		{"http://minio:9000", true, "minio:9000", false},
		{"minio:9000", true, "minio:9000", true},
		{"//minio:9000", false, "minio:9000", false},
	}
	for _, tc := range tests {
		host, secure := splitEndpoint(tc.in, tc.ssl)
		if host != tc.host || secure != tc.secure {
			t.Errorf("splitEndpoint(%q, %v) = %q, %v", tc.in, tc.ssl, host, secure)
		}
	}
}

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewLocalStorage(root)

	if err := store.UploadObject(ctx, "in/sales_2024-03-05.csv", []byte("a,b\n")); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if err := store.UploadObject(ctx, "other/x.csv", []byte("x")); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	objects, err := store.ListObjects(ctx, "in/")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(objects) != 1 || objects[0].Key != "in/sales_2024-03-05.csv" || objects[0].Size != 4 {
		t.Fatalf("objects = %+v", objects)
	}

	dest := filepath.Join(t.TempDir(), "nested", "copy.csv")
	if err := store.DownloadObject(ctx, objects[0].Key, dest); err != nil {
		t.Fatalf("download failed: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "a,b\n" {
		t.Fatalf("downloaded %q", data)
	}
}
