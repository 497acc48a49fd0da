// Package postgres 提供 PostgreSQL 数据库访问层实现
package postgres

import (
	"context"
	"fmt"

	"novel-copilot-api/internal/domain/entity"
)

// Models 需要迁移的全部模型
func Models() []interface{} {
	return []interface{}{
		&entity.User{},
		&entity.Novel{},
		&entity.Chapter{},
		&entity.Suggestion{},
		&entity.LLMUsageEvent{},
	}
}

// AutoMigrate 按实体定义创建或更新表结构
func (c *Client) AutoMigrate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "postgres.AutoMigrate")
	defer span.End()

	if err := c.db.WithContext(ctx).Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to enable pgcrypto: %w", err)
	}
	if err := c.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
