package quota

import (
	"context"
	"fmt"
	"time"

	"novel-copilot-api/internal/domain/repository"
)

// WorkflowUsage 单个工作流（如 continuation_inline）的用量
type WorkflowUsage struct {
	Workflow         string `json:"workflow"`
	Calls            int64  `json:"calls"`
	Failures         int64  `json:"failures"`
	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
}

// DailyUsage 用户当日（UTC）的用量
type DailyUsage struct {
	UserID     string          `json:"user_id"`
	Date       string          `json:"date"`
	Tokens     int64           `json:"tokens"`
	Calls      int64           `json:"calls"`
	Failures   int64           `json:"failures"`
	ByWorkflow []WorkflowUsage `json:"by_workflow"`
	From       time.Time       `json:"from"`
	To         time.Time       `json:"to"`
}

// UsageReporter 统计用户 LLM 用量
type UsageReporter struct {
	llmRepo repository.LLMUsageEventRepository
	now     func() time.Time
}

func NewUsageReporter(llmRepo repository.LLMUsageEventRepository) *UsageReporter {
	return &UsageReporter{
		llmRepo: llmRepo,
		now:     time.Now,
	}
}

// Today 返回用户当日的用量汇总
func (r *UsageReporter) Today(ctx context.Context, userID string) (*DailyUsage, error) {
	now := r.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	rows, err := r.llmRepo.SummarizeByWorkflow(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily usage: %w", err)
	}

	usage := &DailyUsage{
		UserID:     userID,
		Date:       start.Format("2006-01-02"),
		ByWorkflow: make([]WorkflowUsage, 0, len(rows)),
		From:       start,
		To:         end,
	}
	for _, row := range rows {
		workflow := row.Workflow
		if workflow == "" {
			workflow = "unknown"
		}
		usage.ByWorkflow = append(usage.ByWorkflow, WorkflowUsage{
			Workflow:         workflow,
			Calls:            row.Calls,
			Failures:         row.Failures,
			PromptTokens:     row.PromptTokens,
			CompletionTokens: row.CompletionTokens,
		})
		usage.Calls += row.Calls
		usage.Failures += row.Failures
		usage.Tokens += row.PromptTokens + row.CompletionTokens
	}
	return usage, nil
}
