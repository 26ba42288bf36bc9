package handlers

import (
	"net/http"
	"strings"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/importer"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/andresuchdata/replenish/internal/service"
	"github.com/andresuchdata/replenish/internal/staging"
	"github.com/gin-gonic/gin"
)

type ImportHandler struct {
	service *service.ImportService
	runs    repository.ImportRunRepository
}

func NewImportHandler(s *service.ImportService, runs repository.ImportRunRepository) *ImportHandler {
	return &ImportHandler{service: s, runs: runs}
}

func importKind(c *gin.Context) (domain.ImportKind, bool) {
	kind, ok := domain.ParseImportKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusBadRequest, domain.ImportResult{Message: "Unsupported import type."})
	}
	return kind, ok
}

// Upload imports a file directly in header mode.
func (h *ImportHandler) Upload(c *gin.Context) {
	kind, ok := importKind(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ImportResult{Message: "Please choose a CSV file to upload."})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ImportResult{Message: "Unable to open uploaded file."})
		return
	}
	defer f.Close()

	req := importer.Request{Kind: kind, SnapshotDate: strings.TrimSpace(c.PostForm("snapshot_date"))}
	if importer.IsSpreadsheet(fh.Filename) {
		// Spreadsheets go through staging, which converts them.
		u, err := h.service.Preview(c.Request.Context(), kind, f, staging.Meta{OriginalName: fh.Filename, SnapshotDate: req.SnapshotDate})
		if err != nil {
			respondError(c, err)
			return
		}
		res, err := h.service.Confirm(c.Request.Context(), kind, service.ConfirmRequest{Token: u.Token})
		respondImport(c, res, err)
		return
	}

	res, err := h.service.Import(c.Request.Context(), f, req)
	respondImport(c, res, err)
}

// Preview stages a file and returns its head with a suggested column map.
func (h *ImportHandler) Preview(c *gin.Context) {
	kind, ok := importKind(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ImportResult{Message: "Please choose a CSV file to upload."})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ImportResult{Message: "Unable to open uploaded file."})
		return
	}
	defer f.Close()

	meta := staging.Meta{
		OriginalName: fh.Filename,
		SnapshotDate: strings.TrimSpace(c.PostForm("snapshot_date")),
	}
	if id := parseInt64(c.PostForm("warehouse_id")); id > 0 {
		meta.WarehouseID = &id
	}

	preview, err := h.service.Preview(c.Request.Context(), kind, f, meta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (h *ImportHandler) Confirm(c *gin.Context) {
	kind, ok := importKind(c)
	if !ok {
		return
	}
	var req service.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		c.JSON(http.StatusBadRequest, domain.ImportResult{Message: "Upload session expired. Please upload the file again."})
		return
	}

	res, err := h.service.Confirm(c.Request.Context(), kind, req)
	respondImport(c, res, err)
}

func (h *ImportHandler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Param("token")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Upload cancelled."})
}

func (h *ImportHandler) ListRuns(c *gin.Context) {
	runs, err := h.runs.ListRuns(c.Request.Context(), parsePositiveIntWithDefault(c.Query("limit"), 20))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (h *ImportHandler) GetRun(c *gin.Context) {
	ctx := c.Request.Context()
	run, err := h.runs.GetRun(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	files, err := h.runs.ListFiles(ctx, run.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "files": files})
}
