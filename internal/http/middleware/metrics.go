package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vinnu2910/edutainverse/internal/observability"
)

// Metrics records request counts and latency by matched route.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.ObserveAPI(c.Request.Context(), c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
