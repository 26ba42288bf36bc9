package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/importer"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	if _, ok := importer.IsStructural(err); ok {
		return http.StatusUnprocessableEntity
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrWarehouseNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// messageFor is the text a client may see for err.
func messageFor(err error) string {
	if se, ok := importer.IsStructural(err); ok {
		return se.Message
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	if errors.Is(err, domain.ErrWarehouseNotFound) {
		return "Selected warehouse not found."
	}
	if errors.Is(err, domain.ErrNotFound) {
		return "Not found."
	}
	return "Internal server error."
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"success": false, "message": messageFor(err)})
}

// respondImport writes an import outcome. A failed import keeps the
// result's own message.
func respondImport(c *gin.Context, res domain.ImportResult, err error) {
	if err == nil {
		c.JSON(http.StatusOK, res)
		return
	}
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("import failed")
	}
	res.Success = false
	if res.Message == "" {
		res.Message = messageFor(err)
	}
	c.JSON(status, res)
}

func parseInt64(value string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parsePositiveIntWithDefault(value string, fallback int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func parseOptionalFloat(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return &f
	}
	return nil
}
