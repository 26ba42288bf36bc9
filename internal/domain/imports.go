package domain

import (
	"strings"
	"time"
)

// ImportKind is the dataset a CSV feeds.
type ImportKind string

const (
	ImportSales ImportKind = "sales"
	ImportStock ImportKind = "stock"
)

// ParseImportKind accepts "sales" or "stock" in any case.
func ParseImportKind(s string) (ImportKind, bool) {
	switch ImportKind(strings.ToLower(strings.TrimSpace(s))) {
	case ImportSales:
		return ImportSales, true
	case ImportStock:
		return ImportStock, true
	}
	return "", false
}

// ImportResult is what a single file import reports back.
type ImportResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
}

// ImportRun tracks one batch import over many files.
type ImportRun struct {
	ID         string     `json:"id" db:"id" gorm:"primaryKey;size:36"`
	Source     string     `json:"source" db:"source"`
	Status     RunStatus  `json:"status" db:"status"`
	FilesTotal int        `json:"files_total" db:"files_total"`
	FilesDone  int        `json:"files_done" db:"files_done"`
	Error      *string    `json:"error,omitempty" db:"error"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// ImportFile tracks one file inside a run.
type ImportFile struct {
	ID         int64      `json:"id" db:"id" gorm:"primaryKey"`
	RunID      string     `json:"run_id" db:"run_id" gorm:"size:36;index"`
	Name       string     `json:"name" db:"name"`
	Kind       ImportKind `json:"kind" db:"kind"`
	Status     RunStatus  `json:"status" db:"status"`
	Imported   int        `json:"imported" db:"imported"`
	Skipped    int        `json:"skipped" db:"skipped"`
	Error      *string    `json:"error,omitempty" db:"error"`
	StartedAt  *time.Time `json:"started_at,omitempty" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}
