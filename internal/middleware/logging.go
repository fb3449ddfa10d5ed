package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"symptom-checker-server/internal/logger"
)

// RequestLogger logs one line per request.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		details := map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  status,
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			details["errors"] = c.Errors.String()
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("HTTP", "request failed", details)
		case status >= http.StatusBadRequest:
			log.Warn("HTTP", "request rejected", details)
		default:
			log.Info("HTTP", "request served", details)
		}
	}
}

// BodyLimit caps the size of request bodies.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
