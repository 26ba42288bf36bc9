// Package queue runs imports asynchronously on asynq. With the queue
// disabled every Enqueue is a no-op that reports false, and callers import
// synchronously instead.
package queue

import (
	"encoding/json"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/hibiken/asynq"
)

const (
	TaskImportDriveFile = "import:drive_file"
	TaskImportObject    = "import:object"

	DefaultQueue = "imports"
)

// DriveFilePayload names a Drive file to ingest. An empty Kind is inferred
// from the file name.
type DriveFilePayload struct {
	FileID string            `json:"file_id"`
	Kind   domain.ImportKind `json:"kind,omitempty"`
}

// ObjectPayload names an object-storage key to import.
type ObjectPayload struct {
	Key  string            `json:"key"`
	Kind domain.ImportKind `json:"kind"`
}

func NewDriveFileTask(payload DriveFilePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskImportDriveFile, body), nil
}

func NewObjectTask(payload ObjectPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskImportObject, body), nil
}
