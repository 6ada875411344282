package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/service"
)

// unmatchedRoute labels requests no route matched, keeping raw ids out of label values.
const unmatchedRoute = "unmatched"

// Metrics records request duration and status per route pattern.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
