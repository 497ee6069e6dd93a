package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediread/vault/internal/common"
	"github.com/mediread/vault/internal/ratelimit"
)

const rateLimitMessage = "Rate limit exceeded. Please try again in a minute."

// RequestLogger attaches a request ID to each request's context and logs
// one line per request on completion.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), reqID))
		c.Header("X-Request-Id", reqID)

		start := time.Now()
		c.Next()

		logger.Info("http.request",
			"req_id", reqID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

// RateLimit rejects requests once the client IP exceeds limit per window.
func RateLimit(limiter *ratelimit.Limiter, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && !limiter.Allow(c.ClientIP(), limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": rateLimitMessage})
			return
		}
		c.Next()
	}
}

// respondError maps application errors onto HTTP status codes with a
// JSON error body.
func respondError(c *gin.Context, err error) {
	c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
}
