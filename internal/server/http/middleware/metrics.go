package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver records per-route request outcomes.
type RequestObserver interface {
	ObserveRequest(handler string, status int, elapsed time.Duration)
}

// RequestMetrics labels requests by route template so path ids do not explode cardinality.
func RequestMetrics(observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observer.ObserveRequest(route, c.Writer.Status(), time.Since(start))
	}
}
