package repository

import (
	"context"

	"novel-copilot-api/internal/domain/entity"
)

// SuggestionFilter 建议过滤条件
type SuggestionFilter struct {
	NovelID   *int64
	ChapterID *int64
	// Types 为空表示不限类型
	Types []entity.SuggestionType
}

// SuggestionRepository AI 建议仓储接口，查询均排除已软删除的记录
type SuggestionRepository interface {
	// Create 保存建议
	Create(ctx context.Context, suggestion *entity.Suggestion) error

	// GetByID 根据 ID 获取建议，不存在或已删除时返回 nil, nil
	GetByID(ctx context.Context, id int64) (*entity.Suggestion, error)

	// Update 更新建议
	Update(ctx context.Context, suggestion *entity.Suggestion) error

	// SoftDelete 标记删除
	SoftDelete(ctx context.Context, id int64) error

	// ListByUser 获取用户的建议列表（按创建时间倒序）
	ListByUser(ctx context.Context, userID string, filter *SuggestionFilter, pagination Pagination) (*PagedResult[*entity.Suggestion], error)
}
