package drive

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/importer"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Enqueuer hands ingestion to the job queue. A false return means the queue
// is disabled and the caller should run the work itself.
type Enqueuer interface {
	EnqueueDriveFile(ctx context.Context, fileID string, kind domain.ImportKind) (bool, error)
}

// Finder resolves folder paths. *Service implements it.
type Finder interface {
	FindFolderByPath(ctx context.Context, path string) (string, error)
}

type Handler struct {
	client  Client
	finder  Finder
	ingest  *IngestService
	enqueue Enqueuer
}

func NewHandler(client Client, finder Finder, ingest *IngestService, enqueue Enqueuer) *Handler {
	return &Handler{client: client, finder: finder, ingest: ingest, enqueue: enqueue}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/drive/files", h.ListFiles).Methods(http.MethodGet)
	router.HandleFunc("/api/drive/ingest", h.IngestFile).Methods(http.MethodPost)
	router.HandleFunc("/api/drive/ingest-folder", h.IngestFolder).Methods(http.MethodPost)
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	folderID := query.Get("folderId")

	if p := query.Get("path"); p != "" && h.finder != nil {
		id, err := h.finder.FindFolderByPath(r.Context(), p)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		folderID = id
	}

	files, err := h.client.ListFiles(r.Context(), folderID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if files == nil {
		files = []*File{}
	}
	writeJSON(w, http.StatusOK, files)
}

func (h *Handler) IngestFile(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	fileID := query.Get("fileId")
	if fileID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "fileId parameter is required"})
		return
	}

	var kind domain.ImportKind
	if raw := query.Get("kind"); raw != "" {
		k, ok := domain.ParseImportKind(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, domain.ImportResult{Message: "Unsupported import type."})
			return
		}
		kind = k
	}

	if h.enqueue != nil {
		queued, err := h.enqueue.EnqueueDriveFile(r.Context(), fileID, kind)
		if err != nil {
			log.Error().Err(err).Str("file_id", fileID).Msg("failed to enqueue drive ingest")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to enqueue ingestion"})
			return
		}
		if queued {
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "file_id": fileID})
			return
		}
	}

	res, err := h.ingest.IngestFile(r.Context(), fileID, kind)
	if err != nil {
		writeJSON(w, ingestStatus(err), importFailure(res, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) IngestFolder(w http.ResponseWriter, r *http.Request) {
	run, err := h.ingest.IngestFolder(r.Context(), r.URL.Query().Get("folderId"))
	if err != nil {
		log.Error().Err(err).Msg("drive folder ingest failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func ingestStatus(err error) int {
	if _, ok := importer.IsStructural(err); ok {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func importFailure(res domain.ImportResult, err error) domain.ImportResult {
	res.Success = false
	if res.Message == "" {
		res.Message = err.Error()
	}
	return res
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}
