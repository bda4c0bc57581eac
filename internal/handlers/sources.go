package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pricewatch/search-service/internal/adapters"
	"github.com/pricewatch/search-service/internal/database"
	reachclient "github.com/pricewatch/search-service/internal/http"
	"github.com/pricewatch/search-service/internal/http/ratelimit"
)

// CreateSourceRequest is the body for POST /internal/admin/sources.
type CreateSourceRequest struct {
	Name    string `json:"name" binding:"required"`
	BaseURL string `json:"base_url" binding:"required,url"`
	Adapter string `json:"adapter" binding:"required,oneof=json_api html_scrape"`
}

// SourceAdapterProvisioner registers a newly created source's adapter so
// the next refresh's fan-out can reach it without a process restart.
type SourceAdapterProvisioner struct {
	Registry              *adapters.Registry
	ScraperTimeoutSeconds int
	RequestsPerSecond     float64
	Logger                zerolog.Logger
}

func (p *SourceAdapterProvisioner) provision(adapterKind string) adapters.SourceAdapter {
	seconds := p.ScraperTimeoutSeconds
	if seconds <= 0 {
		seconds = 30
	}
	timeout := time.Duration(seconds) * time.Second
	rps := p.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	switch adapterKind {
	case "html_scrape":
		return adapters.NewHTMLScrapeAdapter(timeout, rps, p.Logger)
	default:
		return adapters.NewJSONAPIAdapter(timeout, rps, p.Logger)
	}
}

// ListSources handles GET /internal/admin/sources.
func ListSources(c *gin.Context) {
	sources, err := database.ListSources(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not list sources"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

// CreateSource handles POST /internal/admin/sources.
func CreateSource(provisioner *SourceAdapterProvisioner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSourceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		reachCfg := ratelimit.DefaultConfig()
		reachCfg.MaxRetries = 1
		reachClient := reachclient.NewClient(reachCfg)
		if resp, err := reachClient.Get(req.BaseURL); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("base_url unreachable: %v", err)})
			return
		} else {
			resp.Body.Close()
		}

		source, err := database.CreateSource(c.Request.Context(), req.Name, req.BaseURL)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not create source"})
			return
		}

		if provisioner != nil {
			provisioner.Registry.Register(source.Name, provisioner.provision(req.Adapter))
		}

		c.JSON(http.StatusCreated, source)
	}
}

// DeactivateSource handles DELETE /internal/admin/sources/:id.
func DeactivateSource(registry *adapters.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source id"})
			return
		}

		source, err := database.GetSource(c.Request.Context(), id)
		if errors.Is(err, database.ErrSourceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not look up source"})
			return
		}

		if err := database.DeactivateSource(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not deactivate source"})
			return
		}

		if registry != nil {
			registry.Unregister(source.Name)
		}

		c.Status(http.StatusNoContent)
	}
}
