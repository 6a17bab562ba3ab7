package middleware

import (
	"strconv"
	"time"

	"iris-server/config"

	"github.com/gin-gonic/gin"
)

// Metrics captures HTTP metrics for Gin routes
func Metrics(metrics *config.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		statusLabel := strconv.Itoa(status)

		metrics.HTTPRequests.WithLabelValues(c.Request.Method, path, statusLabel).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
		if status >= 400 {
			metrics.HTTPErrors.WithLabelValues(c.Request.Method, path, statusLabel).Inc()
		}
	}
}
