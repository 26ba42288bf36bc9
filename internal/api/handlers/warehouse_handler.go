package handlers

import (
	"net/http"

	"github.com/andresuchdata/replenish/internal/service"
	"github.com/gin-gonic/gin"
)

type WarehouseHandler struct {
	service *service.WarehouseService
}

func NewWarehouseHandler(s *service.WarehouseService) *WarehouseHandler {
	return &WarehouseHandler{service: s}
}

func (h *WarehouseHandler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type upsertWarehouseRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (h *WarehouseHandler) Upsert(c *gin.Context) {
	var req upsertWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid warehouse request."})
		return
	}

	w, created, err := h.service.Upsert(c.Request.Context(), req.Code, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"success": true, "message": service.UpsertMessage(created), "warehouse": w})
}
