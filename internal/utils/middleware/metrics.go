package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/estateflow/server/internal/utils/metrics"
)

// Metrics returns a middleware that records request counts and latencies.
// Routes are labelled by their template so path parameters do not explode
// the label space.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
