package drive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/andresuchdata/replenish/internal/storage"
)

// ErrReadOnly is returned by FolderStorage.UploadObject.
var ErrReadOnly = errors.New("drive folder is read-only")

// FolderStorage presents one Drive folder as object storage so the batch
// pipeline can run over it. Keys are "<file id>/<file name>".
type FolderStorage struct {
	client   Client
	folderID string
}

func NewFolderStorage(client Client, folderID string) *FolderStorage {
	return &FolderStorage{client: client, folderID: folderID}
}

// ListObjects lists the CSV and XLSX files directly inside the folder whose
// names start with prefix.
func (s *FolderStorage) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	files, err := s.client.ListFiles(ctx, s.folderID)
	if err != nil {
		return nil, err
	}

	out := make([]storage.ObjectInfo, 0, len(files))
	for _, f := range files {
		if f.IsFolder() || !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		switch strings.ToLower(filepath.Ext(f.Name)) {
		case ".csv", ".xlsx", ".xls":
		default:
			continue
		}
		info := storage.ObjectInfo{Key: ObjectKey(f), Size: f.Size}
		if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
			info.LastModified = t
		}
		out = append(out, info)
	}
	return out, nil
}

func (s *FolderStorage) DownloadObject(ctx context.Context, key, destPath string) error {
	id, _, ok := strings.Cut(key, "/")
	if !ok || id == "" {
		return fmt.Errorf("invalid drive object key %q", key)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create download dir: %w", err)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", destPath, err)
	}
	if err := s.client.DownloadFile(ctx, id, out); err != nil {
		out.Close()
		return fmt.Errorf("failed to download %s: %w", key, err)
	}
	return out.Close()
}

func (s *FolderStorage) UploadObject(context.Context, string, []byte) error {
	return ErrReadOnly
}

// ObjectKey is the FolderStorage key of f.
func ObjectKey(f *File) string {
	return f.ID + "/" + path.Base(f.Name)
}

var _ storage.ObjectStorage = (*FolderStorage)(nil)
