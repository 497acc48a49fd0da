package service

import (
	"context"
	"errors"
)

// WorkflowContinuationPrefix 续写类调用的 workflow 前缀，后接续写模式
const WorkflowContinuationPrefix = "continuation_"

// ContinuationWorkflow 返回某种续写模式对应的 workflow 名
func ContinuationWorkflow(mode string) string {
	return WorkflowContinuationPrefix + mode
}

// LLMUsageInput 一次模型调用的用量，由 eino 回调填充
type LLMUsageInput struct {
	UserID   string
	Workflow string
	Provider string
	Model    string

	PromptTokens     int
	CompletionTokens int
	DurationMs       int
	Success          bool
}

// Validate 拒绝负的 token 与耗时
func (in LLMUsageInput) Validate() error {
	if in.PromptTokens < 0 || in.CompletionTokens < 0 {
		return errors.New("token usage must not be negative")
	}
	if in.DurationMs < 0 {
		return errors.New("duration must not be negative")
	}
	return nil
}

// LLMUsageRecorder 用量流水写入端，失败只记日志不影响续写结果
type LLMUsageRecorder interface {
	Record(ctx context.Context, in LLMUsageInput) error
}
