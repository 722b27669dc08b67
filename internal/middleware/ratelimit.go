package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/metrics"
	"github.com/BruksfildServices01/agenda-engine/internal/ratelimit"
)

// RateLimitMiddleware throttles by client IP. Limiter failures let the
// request through.
func RateLimitMiddleware(limiter ratelimit.Limiter, log *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.FullPath() + ":" + c.ClientIP()

		ok, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn().Err(err).Msg("rate limiter unavailable")
			c.Next()
			return
		}
		if !ok {
			metrics.IncRateLimited()
			httperr.TooManyRequests(c, "rate_limited", "Too many requests. Please try again later.")
			c.Abort()
			return
		}

		c.Next()
	}
}
