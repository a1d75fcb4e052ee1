package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/signage/internal/metrics"
)

// Metrics records request count and latency per matched route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.RecordAPIRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
