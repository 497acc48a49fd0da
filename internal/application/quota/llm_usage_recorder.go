// Package quota 记录并统计用户的 LLM 用量
package quota

import (
	"context"
	"fmt"
	"strings"

	"novel-copilot-api/internal/domain/entity"
	"novel-copilot-api/internal/domain/repository"
	"novel-copilot-api/internal/domain/service"
)

// LLMUsageRecorder 将 LLM 调用写入用量流水
type LLMUsageRecorder struct {
	usageRepo repository.LLMUsageEventRepository
}

var _ service.LLMUsageRecorder = (*LLMUsageRecorder)(nil)

func NewLLMUsageRecorder(usageRepo repository.LLMUsageEventRepository) *LLMUsageRecorder {
	return &LLMUsageRecorder{usageRepo: usageRepo}
}

// Record 未标记用户的调用归入匿名用户
func (r *LLMUsageRecorder) Record(ctx context.Context, in service.LLMUsageInput) error {
	if r == nil || r.usageRepo == nil {
		return nil
	}
	if err := in.Validate(); err != nil {
		return fmt.Errorf("record llm usage: %w", err)
	}

	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		userID = entity.AnonymousUserID
	}

	evt := &entity.LLMUsageEvent{
		UserID:           userID,
		Provider:         strings.TrimSpace(in.Provider),
		Model:            strings.TrimSpace(in.Model),
		Workflow:         strings.TrimSpace(in.Workflow),
		TokensPrompt:     in.PromptTokens,
		TokensCompletion: in.CompletionTokens,
		DurationMs:       in.DurationMs,
		Success:          in.Success,
	}
	return r.usageRepo.Create(ctx, evt)
}
