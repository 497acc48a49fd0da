// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"strconv"
	"time"

	"novel-copilot-api/internal/interfaces/http/dto"
	apperrors "novel-copilot-api/pkg/errors"
	"novel-copilot-api/pkg/logger"
	"novel-copilot-api/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// Enabled 是否启用限流
	Enabled bool
	// RequestsPerMinute 每个客户端 IP 每分钟请求数
	RequestsPerMinute int
	// KeyFunc 由客户端标识与路由构建限流键
	KeyFunc func(clientID, route string) string
}

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error)
}

// RateLimit 按客户端 IP 的滑动窗口限流中间件
func RateLimit(cfg RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(clientID, route string) string {
			return "ratelimit:" + clientID + ":" + route
		}
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		key := cfg.KeyFunc(c.ClientIP(), route)

		allowed, err := limiter.Allow(ctx, key, cfg.RequestsPerMinute, time.Minute)
		if err != nil {
			// 限流器故障时放行
			logger.Warn(ctx, "rate limiter unavailable", "error", err.Error())
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerMinute))
		if !allowed {
			metrics.RateLimitRejected.WithLabelValues(route).Inc()
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", "60")
			dto.Abort(c, apperrors.ErrTooManyRequests.WithDetail("rate limit exceeded"))
			return
		}

		if remaining, err := limiter.Remaining(ctx, key, cfg.RequestsPerMinute, time.Minute); err == nil {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		}
		c.Next()
	}
}
