package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
)

// APIKeyMiddleware guards machine-to-machine endpoints with a static key.
// An empty key rejects every request.
func APIKeyMiddleware(header, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(header)
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			httperr.Unauthorized(c, "invalid_api_key", "Unauthorized.")
			c.Abort()
			return
		}
		c.Next()
	}
}
