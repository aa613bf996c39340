package middleware

import (
	"net/http"
	"strconv"

	"quddle-backend/pkg/logger"
	"quddle-backend/pkg/metrics"
	"quddle-backend/pkg/ratelimit"
	"quddle-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware counts requests per client IP against limiter.
func RateLimitMiddleware(limiter ratelimit.Limiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Error("Rate limit check failed: %v", err)
			response.Abort(c, http.StatusInternalServerError, "Rate limit check failed")
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			metrics.RateLimitedTotal.WithLabelValues(c.FullPath()).Inc()
			c.Header("Retry-After", strconv.Itoa(int(res.ResetIn.Seconds())+1))
			response.Abort(c, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}

		c.Next()
	}
}
