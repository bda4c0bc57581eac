package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pricewatch/search-service/internal/database"
)

// GetJob handles GET /internal/jobs/:jobId, letting a client that
// received a job_id from /api/v1/search poll for its completion.
func GetJob(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("jobId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	job, err := database.GetJob(c.Request.Context(), id)
	if errors.Is(err, database.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not look up job"})
		return
	}

	c.JSON(http.StatusOK, job)
}
