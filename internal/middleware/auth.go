package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// InternalAuthMiddleware gates the /internal/admin ingestion-trigger
// routes (POST /internal/admin/ingest/:chain) behind the
// X-Internal-API-Key header, so only the operator/scheduler that holds
// INGEST_TRIGGER_API_KEY can kick off a chain re-ingestion.
func InternalAuthMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	apiKey := os.Getenv("INGEST_TRIGGER_API_KEY")
	if apiKey == "" {
		logger.Fatal().Msg("INGEST_TRIGGER_API_KEY not set")
	}
	apiKeyBytes := []byte(apiKey)

	return func(c *gin.Context) {
		key := c.GetHeader("X-Internal-API-Key")
		// Use subtle.ConstantTimeCompare to prevent timing attacks
		if subtle.ConstantTimeCompare([]byte(key), apiKeyBytes) != 1 {
			logger.Warn().Str("remote_addr", c.ClientIP()).Str("path", c.Request.URL.Path).
				Msg("rejected ingestion-trigger request: bad internal api key")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}
		c.Next()
	}
}
