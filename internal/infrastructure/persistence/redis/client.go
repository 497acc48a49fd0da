// Package redis 提供 Redis 缓存、限流与消息队列的连接
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"novel-copilot-api/internal/config"
	"novel-copilot-api/pkg/logger"
)

var tracer = otel.Tracer("redis")

// connectTimeout 启动时连通性检查的超时
const connectTimeout = 5 * time.Second

// Client Redis 客户端，缓存、限流器与 Stream 共用同一连接池
type Client struct {
	rdb  *redis.Client
	addr string
}

// NewClient 创建 Redis 客户端并验证连通性
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	logger.Info(ctx, "redis connected", "addr", addr, "db", cfg.DB)

	return &Client{rdb: rdb, addr: addr}, nil
}

// Redis 底层客户端，供 Stream 生产者与消费者使用
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Close 关闭连接池
func (c *Client) Close() error {
	return c.rdb.Close()
}

// HealthCheck 就绪探针使用的连通性检查
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "redis.HealthCheck")
	defer span.End()

	stats := c.rdb.PoolStats()
	span.SetAttributes(
		attribute.String("redis.addr", c.addr),
		attribute.Int64("redis.pool.total_conns", int64(stats.TotalConns)),
		attribute.Int64("redis.pool.idle_conns", int64(stats.IdleConns)),
		attribute.Int64("redis.pool.timeouts", int64(stats.Timeouts)),
	)

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}
