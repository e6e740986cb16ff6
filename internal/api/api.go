// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/foodbank-planner/backend-go/internal/api/handlers"
	"github.com/foodbank-planner/backend-go/internal/api/middleware"
	"github.com/foodbank-planner/backend-go/internal/metrics"
	"github.com/foodbank-planner/backend-go/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	DistributionService *service.DistributionService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
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

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	if services != nil && services.DistributionService != nil {
		h := handlers.NewDistributionHandler(services.DistributionService)

		router.GET("/", h.Health)
		router.GET("/health", h.Health)
		router.POST("/predict", h.Predict)
		router.POST("/plan", h.Plan)
		router.GET("/search", h.Search)

		inventoryGroup := router.Group("/inventory")
		{
			inventoryGroup.POST("/items", h.AddItem)
			inventoryGroup.GET("/:user_id", h.GetInventory)
		}

		router.GET("/history/:user_id", h.History)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
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
