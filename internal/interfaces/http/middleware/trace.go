// Package middleware 提供 HTTP 中间件
package middleware

import (
	"net/http"
	"strings"

	"novel-copilot-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

// untracedPaths 探针与指标抓取不产生 span
var untracedPaths = []string{"/health", "/ready", "/live", "/metrics"}

// Trace 返回 otelgin 与 trace_id 注入两段处理器，trace_id/span_id 写入日志上下文和响应头
func Trace(serviceName string, skip ...string) []gin.HandlerFunc {
	skipped := append(append([]string{}, untracedPaths...), skip...)
	return []gin.HandlerFunc{
		otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
			return !hasAnyPrefix(r.URL.Path, skipped)
		})),
		bindTrace,
	}
}

// bindTrace 在 otelgin 建好 span 之后执行
func bindTrace(c *gin.Context) {
	sc := trace.SpanFromContext(c.Request.Context()).SpanContext()
	if !sc.IsValid() {
		c.Next()
		return
	}

	traceID := sc.TraceID().String()
	c.Set("trace_id", traceID)
	c.Set("span_id", sc.SpanID().String())

	ctx := logger.WithContext(c.Request.Context(), logger.TraceIDKey, traceID)
	ctx = logger.WithContext(ctx, logger.SpanIDKey, sc.SpanID().String())
	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Trace-ID", traceID)

	c.Next()
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
