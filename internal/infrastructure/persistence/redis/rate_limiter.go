// Package redis 提供 Redis 限流器实现
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// slidingWindowScript 在一次往返内完成清理、计数与登记。
// KEYS[1] 限流键；ARGV: now_ms, window_ms, limit, member
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
  return {0, count}
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window * 2)
return {1, count + 1}
`)

// RateLimiter 基于有序集合的滑动窗口限流器
type RateLimiter struct {
	client *Client
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow 判断请求是否落在窗口配额内，允许时同时计入窗口
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Allow")
	span.SetAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int("ratelimit.limit", limit),
		attribute.Int64("ratelimit.window_ms", window.Milliseconds()),
	)
	defer span.End()

	if limit <= 0 {
		return true, nil
	}

	now := time.Now().UnixMilli()
	res, err := slidingWindowScript.Run(ctx, l.client.rdb, []string{key},
		now, window.Milliseconds(), limit, fmt.Sprintf("%d-%s", now, uuid.NewString()),
	).Int64Slice()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}

	allowed := len(res) == 2 && res[0] == 1
	span.SetAttributes(attribute.Bool("ratelimit.allowed", allowed))
	if len(res) == 2 {
		span.SetAttributes(attribute.Int64("ratelimit.current_count", res[1]))
	}
	return allowed, nil
}

// Remaining 当前窗口剩余配额，只读
func (l *RateLimiter) Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Remaining")
	span.SetAttributes(attribute.String("ratelimit.key", key))
	defer span.End()

	windowStart := time.Now().Add(-window).UnixMilli()
	count, err := l.client.rdb.ZCount(ctx, key, fmt.Sprintf("(%d", windowStart), "+inf").Result()
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count rate limit window: %w", err)
	}

	remaining := max(limit-int(count), 0)
	span.SetAttributes(attribute.Int("ratelimit.remaining", remaining))
	return remaining, nil
}

// BuildRateLimitKey 按客户端与路由模板构建限流键
func BuildRateLimitKey(clientID, route string) string {
	if route == "" {
		route = "unmatched"
	}
	return fmt.Sprintf("ratelimit:%s:%s", clientID, route)
}
