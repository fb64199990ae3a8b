package server

import (
	"github.com/gin-gonic/gin"
	obsmetrics "github.com/smallbiznis/orderpulse/internal/observability/metrics"
)

// RequestMetrics counts served requests by route template and status class.
func RequestMetrics(pipeline *obsmetrics.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		pipeline.ObserveRequest(c.FullPath(), c.Writer.Status())
	}
}
