package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"neura-deck-api/pkg/metrics"
)

// Metrics 按路由模板维度采集请求量、时延与报文大小
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		method := c.Request.Method
		start := time.Now()

		if size := c.Request.ContentLength; size > 0 {
			metrics.HTTPRequestSize.WithLabelValues(method, route).Observe(float64(size))
		}

		c.Next()

		metrics.HTTPRequestsTotal.
			WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.
			WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size > 0 {
			metrics.HTTPResponseSize.WithLabelValues(method, route).Observe(float64(size))
		}
	}
}
