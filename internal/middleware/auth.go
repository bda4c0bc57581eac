package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pricewatch/search-service/config"
)

// InternalAuthMiddleware validates service-to-service authentication on
// the /internal group (admin source management, job lookups) using the
// X-Internal-API-Key header. The key itself comes from config.Config so
// it honors the same SEARCH_SERVICE_SERVER_INTERNAL_API_KEY/.env
// resolution as the rest of the service, falling back to the bare
// INTERNAL_API_KEY environment variable for deployments that set it
// directly.
func InternalAuthMiddleware() gin.HandlerFunc {
	var apiKey string
	if cfg := config.Get(); cfg != nil {
		apiKey = cfg.Server.InternalAPIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("INTERNAL_API_KEY")
	}
	if apiKey == "" {
		log.Fatal().Msg("internal API key not configured; refusing to start /internal routes unauthenticated")
	}
	apiKeyBytes := []byte(apiKey)

	return func(c *gin.Context) {
		key := c.GetHeader("X-Internal-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), apiKeyBytes) != 1 {
			log.Warn().Str("path", c.Request.URL.Path).Str("remote_addr", c.ClientIP()).
				Msg("rejected internal request with invalid or missing API key")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}
		c.Next()
	}
}
