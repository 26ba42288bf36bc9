package pipeline

import (
	"context"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/importer"
)

// FileImporter imports one file on disk. service.ImportService satisfies it.
type FileImporter interface {
	ImportFile(ctx context.Context, path string, req importer.Request) (domain.ImportResult, error)
}

// Config holds configuration for an orchestrator instance.
type Config struct {
	WorkerCount int    // files imported concurrently per group
	WorkDir     string // where remote objects are downloaded
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		WorkerCount: 4,
		WorkDir:     "data/intermediate/imports",
	}
}

// SourceFile is one importable object found under a prefix.
type SourceFile struct {
	Key  string
	Name string
	Kind domain.ImportKind
	// Date is the day embedded in the file name, zero when there is none.
	Date time.Time
}

var fileDatePattern = regexp.MustCompile(`(\d{4})-?(\d{2})-?(\d{2})`)

// Classify recognizes sales_*.csv and stock_*.csv (or .xlsx/.xls) names and
// extracts the first YYYY-MM-DD or YYYYMMDD date in them.
func Classify(key string) (SourceFile, bool) {
	name := path.Base(key)
	lower := strings.ToLower(name)

	switch path.Ext(lower) {
	case ".csv", ".xlsx", ".xls":
	default:
		return SourceFile{}, false
	}

	var kind domain.ImportKind
	switch {
	case strings.HasPrefix(lower, "sales_"):
		kind = domain.ImportSales
	case strings.HasPrefix(lower, "stock_"):
		kind = domain.ImportStock
	default:
		return SourceFile{}, false
	}

	f := SourceFile{Key: key, Name: name, Kind: kind}
	if m := fileDatePattern.FindStringSubmatch(lower); m != nil {
		if d, err := time.Parse("2006-01-02", m[1]+"-"+m[2]+"-"+m[3]); err == nil {
			f.Date = d
		}
	}
	return f, true
}

// dateGroup holds the files of one day, sales before stock.
type dateGroup struct {
	Date  time.Time
	Sales []SourceFile
	Stock []SourceFile
}
