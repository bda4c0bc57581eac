package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pricewatch/search-service/internal/search"
)

// SearchRequest represents the query parameters for GET /api/v1/search.
type SearchRequest struct {
	Query        string `form:"query" binding:"required,min=3,max=100"`
	ForceRefresh bool   `form:"force_refresh"`
}

// SearchHandler builds the GET /api/v1/search handler backed by a
// Coordinator. Query length is validated here, at the HTTP boundary, so
// the Coordinator itself can assume valid input.
func SearchHandler(coordinator *search.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SearchRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		resp, err := coordinator.Search(c.Request.Context(), req.Query, req.ForceRefresh)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search infrastructure unavailable"})
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}
