// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"novel-copilot-api/internal/domain/entity"
	"novel-copilot-api/internal/domain/repository"
)

// SuggestionRepository AI 建议仓储实现
type SuggestionRepository struct {
	client *Client
}

// NewSuggestionRepository 创建建议仓储
func NewSuggestionRepository(client *Client) *SuggestionRepository {
	return &SuggestionRepository{client: client}
}

// Create 保存建议
func (r *SuggestionRepository) Create(ctx context.Context, suggestion *entity.Suggestion) error {
	ctx, span := tracer.Start(ctx, "postgres.SuggestionRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(suggestion).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create suggestion: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取未删除的建议
func (r *SuggestionRepository) GetByID(ctx context.Context, id int64) (*entity.Suggestion, error) {
	ctx, span := tracer.Start(ctx, "postgres.SuggestionRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var suggestion entity.Suggestion
	if err := db.First(&suggestion, "id = ? AND is_deleted = ?", id, false).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get suggestion: %w", err)
	}
	return &suggestion, nil
}

// Update 更新建议
func (r *SuggestionRepository) Update(ctx context.Context, suggestion *entity.Suggestion) error {
	ctx, span := tracer.Start(ctx, "postgres.SuggestionRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(suggestion).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update suggestion: %w", err)
	}
	return nil
}

// SoftDelete 标记删除
func (r *SuggestionRepository) SoftDelete(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "postgres.SuggestionRepository.SoftDelete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Model(&entity.Suggestion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": time.Now(),
		}).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete suggestion: %w", err)
	}
	return nil
}

// ListByUser 获取用户的建议列表
func (r *SuggestionRepository) ListByUser(ctx context.Context, userID string, filter *repository.SuggestionFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Suggestion], error) {
	ctx, span := tracer.Start(ctx, "postgres.SuggestionRepository.ListByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Suggestion{}).Where("user_id = ? AND is_deleted = ?", userID, false)

	if filter != nil {
		if filter.NovelID != nil {
			query = query.Where("novel_id = ?", *filter.NovelID)
		}
		if filter.ChapterID != nil {
			query = query.Where("chapter_id = ?", *filter.ChapterID)
		}
		if len(filter.Types) > 0 {
			types := make([]string, len(filter.Types))
			for i, t := range filter.Types {
				types[i] = string(t)
			}
			query = query.Where("suggestion_type = ANY(?)", pq.Array(types))
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count suggestions: %w", err)
	}

	var suggestions []*entity.Suggestion
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&suggestions).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}

	return repository.NewPagedResult(suggestions, total, pagination), nil
}
