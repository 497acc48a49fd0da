// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"
	"time"

	"novel-copilot-api/internal/domain/entity"
	"novel-copilot-api/internal/domain/repository"
)

// LLMUsageEventRepository LLM 用量流水仓储实现
type LLMUsageEventRepository struct {
	client *Client
}

func NewLLMUsageEventRepository(client *Client) *LLMUsageEventRepository {
	return &LLMUsageEventRepository{client: client}
}

// Create 写入一条用量流水
func (r *LLMUsageEventRepository) Create(ctx context.Context, event *entity.LLMUsageEvent) error {
	ctx, span := tracer.Start(ctx, "postgres.LLMUsageEventRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(event).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create llm usage event: %w", err)
	}
	return nil
}

// SummarizeByWorkflow 按工作流分组统计调用次数、失败次数与 token
func (r *LLMUsageEventRepository) SummarizeByWorkflow(ctx context.Context, userID string, startInclusive, endExclusive time.Time) ([]repository.UsageSummary, error) {
	ctx, span := tracer.Start(ctx, "postgres.LLMUsageEventRepository.SummarizeByWorkflow")
	defer span.End()

	db := getDB(ctx, r.client.db)

	var rows []repository.UsageSummary
	err := db.Model(&entity.LLMUsageEvent{}).
		Select(`COALESCE(workflow, '') AS workflow,
			COUNT(*) AS calls,
			COUNT(*) FILTER (WHERE NOT success) AS failures,
			COALESCE(SUM(tokens_prompt), 0) AS prompt_tokens,
			COALESCE(SUM(tokens_completion), 0) AS completion_tokens`).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, startInclusive, endExclusive).
		Group("workflow").
		Order("workflow").
		Scan(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to summarize llm usage: %w", err)
	}
	return rows, nil
}
