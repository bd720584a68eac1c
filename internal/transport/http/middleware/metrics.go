package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/telemetry"
)

// Metrics records request counts and latencies per route. The route template
// (c.FullPath) is used instead of the raw path to keep label cardinality
// bounded.
func Metrics(provider *telemetry.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		if counter := provider.RequestCounter(); counter != nil {
			counter.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		}
		if duration := provider.RequestDuration(); duration != nil {
			duration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
		}
	}
}
