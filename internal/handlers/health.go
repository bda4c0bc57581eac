package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pricewatch/search-service/internal/cache"
	"github.com/pricewatch/search-service/internal/database"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// HealthDeps carries the handles HealthCheck needs to probe.
type HealthDeps struct {
	Cache *cache.Client
}

// HealthCheck handles the health check endpoint
func HealthCheck(deps HealthDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{Status: "ok"}
		healthy := true

		if database.Pool() != nil {
			if err := database.Status(c.Request.Context()); err != nil {
				response.Database = "disconnected"
				healthy = false
			} else {
				response.Database = "connected"
			}
		} else {
			response.Database = "not configured"
			healthy = false
		}

		if deps.Cache != nil {
			if err := deps.Cache.Ping(c.Request.Context()); err != nil {
				response.Cache = "disconnected"
				healthy = false
			} else {
				response.Cache = "connected"
			}
		} else {
			response.Cache = "not configured"
			healthy = false
		}

		if !healthy {
			response.Status = "degraded"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}

		c.JSON(http.StatusOK, response)
	}
}
