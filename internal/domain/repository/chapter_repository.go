package repository

import (
	"context"

	"novel-copilot-api/internal/domain/entity"
)

// ChapterRepository 章节仓储接口
type ChapterRepository interface {
	// Create 创建章节
	Create(ctx context.Context, chapter *entity.Chapter) error

	// GetByID 根据 ID 获取章节，不存在时返回 nil, nil
	GetByID(ctx context.Context, id int64) (*entity.Chapter, error)

	// Update 更新章节
	Update(ctx context.Context, chapter *entity.Chapter) error

	// Delete 删除章节
	Delete(ctx context.Context, id int64) error

	// ListByNovel 获取小说章节列表（按章节号排序）
	ListByNovel(ctx context.Context, novelID int64, pagination Pagination) (*PagedResult[*entity.Chapter], error)

	// GetNextNumber 获取下一个章节号
	GetNextNumber(ctx context.Context, novelID int64) (int, error)
}
