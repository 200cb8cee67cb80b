package middleware

import (
	"net/http"
	"time"

	"insightdash/internal"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request identifier in both directions
const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an ID and logs method, path, status and latency
func RequestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)

		c.Next()

		status := c.Writer.Status()
		line := "[%s] %s %s -> %d (%s)"
		args := []interface{}{id, c.Request.Method, c.Request.URL.Path, status, time.Since(start)}
		if status >= http.StatusInternalServerError {
			logger.Error(line, args...)
			return
		}
		logger.Info(line, args...)
	}
}

// LimitBody caps the request body at limit bytes. A non-positive limit disables the cap.
func LimitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
