package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/replenish/internal/api/handlers"
	"github.com/andresuchdata/replenish/internal/api/middleware"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/andresuchdata/replenish/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Replenishment *service.ReplenishmentService
	Planning      *service.PlanningService
	Parameters    *service.ParameterService
	Warehouses    *service.WarehouseService
	Imports       *service.ImportService
	Runs          repository.ImportRunRepository
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	apiGroup := router.Group("/api/v1")
	apiGroup.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if services == nil {
		return router
	}

	if services.Replenishment != nil && services.Planning != nil {
		h := handlers.NewReplenishmentHandler(services.Replenishment, services.Planning)
		group := apiGroup.Group("/replenishment")
		{
			group.GET("/dashboard", h.GetDashboard)
			group.POST("/planning", h.Plan)
		}
	}

	if services.Warehouses != nil {
		h := handlers.NewWarehouseHandler(services.Warehouses)
		apiGroup.GET("/warehouses", h.List)
		apiGroup.POST("/warehouses", h.Upsert)
	}

	if services.Parameters != nil {
		h := handlers.NewParameterHandler(services.Parameters)
		apiGroup.GET("/parameters", h.List)
		apiGroup.PUT("/parameters", h.Save)
		apiGroup.DELETE("/parameters/:warehouse_id/:sku", h.Delete)
	}

	if services.Imports != nil {
		h := handlers.NewImportHandler(services.Imports, services.Runs)
		group := apiGroup.Group("/imports")
		{
			group.POST("/:kind", h.Upload)
			group.POST("/:kind/preview", h.Preview)
			group.POST("/:kind/confirm", h.Confirm)
			group.DELETE("/:token", h.Cancel)
			if services.Runs != nil {
				group.GET("/runs", h.ListRuns)
				group.GET("/runs/:id", h.GetRun)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
