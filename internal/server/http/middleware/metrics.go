package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/pathway/internal/metrics"
)

const unmatchedRoute = "unmatched"

// Metrics records request count and latency per matched route template.
func Metrics(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		m.Observe(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
