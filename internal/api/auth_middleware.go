package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chainwatch/price-compare/internal/auth"
)

const userIDContextKey = "price_compare_user_id"

// bearerAuthMiddleware validates the Authorization: Bearer <token>
// header against the configured TokenIssuer and stashes the claimed
// user id in the gin context for handlers to read.
func bearerAuthMiddleware(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token", "message": "Authorization: Bearer <token> required"})
			return
		}

		claims, err := issuer.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "message": err.Error()})
			return
		}

		c.Set(userIDContextKey, claims.UserID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) int64 {
	v, _ := c.Get(userIDContextKey)
	id, _ := v.(int64)
	return id
}
