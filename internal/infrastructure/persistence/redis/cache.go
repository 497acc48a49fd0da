// Package redis 提供 Redis 缓存实现
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"novel-copilot-api/pkg/metrics"
)

var cacheTracer = otel.Tracer("redis.cache")

// Cache JSON 值缓存，承载小说/章节查询结果与故事上下文快照
type Cache struct {
	client *Client
	group  singleflight.Group
}

// NewCache 创建缓存服务
func NewCache(client *Client) *Cache {
	return &Cache{client: client}
}

// Get 读取原始值，键不存在时返回 nil, nil
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.Get",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	val, hit, err := c.lookup(ctx, "get", key)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Bool("cache.hit", hit))
	return val, nil
}

// Set 以 JSON 写入值
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	ctx, span := cacheTracer.Start(ctx, "cache.Set",
		trace.WithAttributes(
			attribute.String("cache.key", key),
			attribute.Int64("cache.ttl_ms", ttl.Milliseconds()),
		))
	defer span.End()

	data, err := json.Marshal(value)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	if err := c.client.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	return nil
}

// GetOrLoadSafe Read-Through 缓存，同一键的并发未命中只回源一次。
// loader 返回错误时不写缓存，未找到的记录因此不会被缓存。
func (c *Cache) GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.GetOrLoadSafe",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	if val, hit, err := c.lookup(ctx, "load", key); err != nil {
		span.RecordError(err)
		return nil, err
	} else if hit {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return val, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	// 回源结果对所有等待者共享，写缓存不随发起者取消
	writeCtx := context.WithoutCancel(ctx)
	result, err, shared := c.group.Do(key, func() (interface{}, error) {
		data, err := loader()
		if err != nil {
			return nil, err
		}
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal cache value: %w", err)
		}
		if err := c.client.rdb.Set(writeCtx, key, bytes, ttl).Err(); err != nil {
			span.RecordError(err)
		}
		return bytes, nil
	})
	span.SetAttributes(attribute.Bool("cache.shared", shared))
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Delete 删除若干键
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, span := cacheTracer.Start(ctx, "cache.Delete",
		trace.WithAttributes(attribute.StringSlice("cache.keys", keys)))
	defer span.End()

	if err := c.client.rdb.Del(ctx, keys...).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}

func (c *Cache) lookup(ctx context.Context, op, key string) ([]byte, bool, error) {
	val, err := c.client.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		metrics.CacheRequests.WithLabelValues(op, "hit").Inc()
		return val, true, nil
	case errors.Is(err, redis.Nil):
		metrics.CacheRequests.WithLabelValues(op, "miss").Inc()
		return nil, false, nil
	default:
		metrics.CacheRequests.WithLabelValues(op, "error").Inc()
		return nil, false, fmt.Errorf("failed to get cache key %s: %w", key, err)
	}
}
