package repository

import (
	"context"

	"novel-copilot-api/internal/domain/entity"
)

// NovelFilter 小说过滤条件
type NovelFilter struct {
	Genre  string
	Status entity.NovelStatus
}

// NovelRepository 小说仓储接口
type NovelRepository interface {
	// Create 创建小说
	Create(ctx context.Context, novel *entity.Novel) error

	// GetByID 根据 ID 获取小说，不存在时返回 nil, nil
	GetByID(ctx context.Context, id int64) (*entity.Novel, error)

	// Update 更新小说
	Update(ctx context.Context, novel *entity.Novel) error

	// Delete 删除小说及其章节
	Delete(ctx context.Context, id int64) error

	// ListByAuthor 获取作者的小说列表
	ListByAuthor(ctx context.Context, authorID string, filter *NovelFilter, pagination Pagination) (*PagedResult[*entity.Novel], error)

	// RefreshWordCount 按章节字数汇总重算小说字数
	RefreshWordCount(ctx context.Context, id int64) error
}
