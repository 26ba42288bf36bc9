package handlers

import (
	"net/http"
	"strings"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type ReplenishmentHandler struct {
	dashboard *service.ReplenishmentService
	planning  *service.PlanningService
}

func NewReplenishmentHandler(dashboard *service.ReplenishmentService, planning *service.PlanningService) *ReplenishmentHandler {
	return &ReplenishmentHandler{dashboard: dashboard, planning: planning}
}

func (h *ReplenishmentHandler) parseFilter(c *gin.Context) domain.DashboardFilter {
	filter := domain.DashboardFilter{
		WarehouseID: parseInt64(c.Query("warehouse_id")),
		Search:      strings.TrimSpace(c.Query("sku")),
		ShortWindow: parsePositiveIntWithDefault(c.Query("short_window"), 0),
		LongWindow:  parsePositiveIntWithDefault(c.Query("long_window"), 0),
		Span:        parsePositiveIntWithDefault(c.Query("span"), 0),
		Alpha:       parseOptionalFloat(c.Query("alpha")),
	}
	if strategy := strings.TrimSpace(c.Query("strategy")); strategy != "" {
		filter.Strategy = domain.ParseStrategy(strategy)
	}
	return filter
}

func (h *ReplenishmentHandler) GetDashboard(c *gin.Context) {
	result, err := h.dashboard.Dashboard(c.Request.Context(), h.parseFilter(c))
	if err != nil {
		log.Error().Err(err).Msg("dashboard failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute dashboard data.", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Plan accepts an empty body for an all-defaults plan.
func (h *ReplenishmentHandler) Plan(c *gin.Context) {
	var req domain.PlanningRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid planning request."})
			return
		}
	}

	result, err := h.planning.Plan(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
