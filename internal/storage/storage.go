package storage

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
)

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStorage captures the minimal S3-compatible operations the import
// pipeline and the upload archive need.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte) error
}

// ArchiveKey is where a confirmed upload is kept:
// <prefix>/<kind>/<YYYY-MM-DD>/<token>.csv.
func ArchiveKey(prefix string, kind domain.ImportKind, day time.Time, token string) string {
	return path.Join(strings.Trim(prefix, "/"), string(kind), day.Format("2006-01-02"), token+".csv")
}
