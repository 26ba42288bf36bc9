package handlers

import (
	"net/http"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/service"
	"github.com/gin-gonic/gin"
)

type ParameterHandler struct {
	service *service.ParameterService
}

func NewParameterHandler(s *service.ParameterService) *ParameterHandler {
	return &ParameterHandler{service: s}
}

func (h *ParameterHandler) List(c *gin.Context) {
	listing, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

type saveParametersRequest struct {
	WarehouseID int64  `json:"warehouse_id"`
	SKU         string `json:"sku"`
	domain.ParameterInput
}

// Save stores a SKU override when sku is set, a warehouse bundle otherwise.
func (h *ParameterHandler) Save(c *gin.Context) {
	var req saveParametersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid parameter request."})
		return
	}

	p, err := h.service.Save(c.Request.Context(), req.WarehouseID, req.SKU, req.ParameterInput)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Parameters saved.", "parameters": p})
}

func (h *ParameterHandler) Delete(c *gin.Context) {
	err := h.service.Delete(c.Request.Context(), parseInt64(c.Param("warehouse_id")), c.Param("sku"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Override removed."})
}
