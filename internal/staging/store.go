// Package staging keeps uploaded files between preview and confirm. Each
// upload is addressed by an opaque token and expires after a TTL.
package staging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/importer"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned for unknown, consumed or expired tokens.
var ErrNotFound = fmt.Errorf("staged upload %w", domain.ErrNotFound)

// Upload is one staged file, always stored as CSV.
type Upload struct {
	Token        string
	Kind         domain.ImportKind
	Path         string
	OriginalName string
	WarehouseID  *int64
	SnapshotDate string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Meta is what the caller knows about an upload at preview time.
type Meta struct {
	OriginalName string
	WarehouseID  *int64
	SnapshotDate string
}

type Store struct {
	dir string
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	uploads map[string]*Upload
}

func New(dir string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{
		dir:     dir,
		ttl:     ttl,
		now:     time.Now,
		uploads: make(map[string]*Upload),
	}
}

// Put writes r under a fresh token. Spreadsheets are converted to CSV
// before they are staged.
func (s *Store) Put(kind domain.ImportKind, r io.Reader, meta Meta) (*Upload, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging dir: %w", err)
	}

	token := uuid.NewString()
	csvPath := filepath.Join(s.dir, token+".csv")

	if importer.IsSpreadsheet(meta.OriginalName) {
		rawPath := filepath.Join(s.dir, token+".xlsx")
		if err := writeFile(rawPath, r); err != nil {
			return nil, err
		}
		defer os.Remove(rawPath)
		if err := importer.ConvertXLSX(rawPath, csvPath); err != nil {
			os.Remove(csvPath)
			return nil, fmt.Errorf("failed to convert %s: %w", meta.OriginalName, err)
		}
	} else if err := writeFile(csvPath, r); err != nil {
		return nil, err
	}

	now := s.now()
	u := &Upload{
		Token:        token,
		Kind:         kind,
		Path:         csvPath,
		OriginalName: meta.OriginalName,
		WarehouseID:  meta.WarehouseID,
		SnapshotDate: meta.SnapshotDate,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}

	s.mu.Lock()
	s.uploads[token] = u
	s.mu.Unlock()

	return u, nil
}

// Get returns a live upload without consuming it.
func (s *Store) Get(token string) (*Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.uploads[token]
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().After(u.ExpiresAt) {
		s.dropLocked(u)
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

// Take consumes a live upload. The caller owns the file afterwards and
// must hand it back to Release.
func (s *Store) Take(token string) (*Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.uploads[token]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.uploads, token)
	if s.now().After(u.ExpiresAt) {
		removeFile(u.Path)
		return nil, ErrNotFound
	}
	return u, nil
}

// Release deletes the file of a taken upload.
func (s *Store) Release(u *Upload) {
	if u != nil {
		removeFile(u.Path)
	}
}

// Cancel drops an upload and its file.
func (s *Store) Cancel(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.uploads[token]
	if !ok {
		return ErrNotFound
	}
	s.dropLocked(u)
	return nil
}

// Sweep removes every expired upload and returns how many it dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for _, u := range s.uploads {
		if now.After(u.ExpiresAt) {
			s.dropLocked(u)
			n++
		}
	}
	return n
}

func (s *Store) dropLocked(u *Upload) {
	delete(s.uploads, u.Token)
	removeFile(u.Path)
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func removeFile(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("path", path).Msg("staging: failed to remove file")
	}
}
