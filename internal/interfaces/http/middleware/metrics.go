package middleware

import (
	"strconv"
	"time"

	"novel-copilot-api/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics 按路由模板记录请求数、耗时和响应大小，skip 中的路径不计入
func Metrics(skip ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hasAnyPrefix(c.Request.URL.Path, skip) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start).Seconds()

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed)
		if size := c.Writer.Size(); size > 0 {
			metrics.HTTPResponseSize.WithLabelValues(c.Request.Method, route).Observe(float64(size))
		}
	}
}
