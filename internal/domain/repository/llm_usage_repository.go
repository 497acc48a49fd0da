package repository

import (
	"context"
	"time"

	"novel-copilot-api/internal/domain/entity"
)

// UsageSummary 某个工作流在时间区间内的用量汇总
type UsageSummary struct {
	Workflow         string
	Calls            int64
	Failures         int64
	PromptTokens     int64
	CompletionTokens int64
}

// LLMUsageEventRepository LLM 用量流水仓储接口
type LLMUsageEventRepository interface {
	Create(ctx context.Context, event *entity.LLMUsageEvent) error
	// SummarizeByWorkflow 按工作流汇总 [start, end) 内的用量
	SummarizeByWorkflow(ctx context.Context, userID string, startInclusive, endExclusive time.Time) ([]UsageSummary, error)
}
