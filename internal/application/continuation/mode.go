// Package continuation 实现上下文感知的续写流水线：风格分析、提示词构建、模型调用、输出清洗与内联重试。
package continuation

import (
	_ "embed"

	"novel-copilot-api/internal/domain/service"
)

//go:embed prompts/suggestion_system.txt
var suggestionSystemPrompt string

//go:embed prompts/inline_system.txt
var inlineSystemPrompt string

// Kind 续写模式
type Kind string

const (
	KindInline     Kind = "inline"
	KindSuggestion Kind = "suggestion"
)

const (
	suggestionTokenCeiling = 120
	inlineTokenCeiling     = 32
)

// Mode 续写模式及其参数，在入口处一次性选定
type Mode struct {
	Kind         Kind
	SystemPrompt string
	Sampling     service.Sampling
	// Retry 非空时，结果少于 MinWords 个词将以该采样参数重试一次
	Retry *service.Sampling
	// MinWords 重试判定的最少词数
	MinWords int
	// WordCap 清洗后的最大词数
	WordCap int
	// TailWindow 重叠检测使用的输入末尾字符数
	TailWindow int
	// MaxOverlap 重叠检测的最大匹配长度
	MaxOverlap int
	// KeepParagraphs 为 true 时保留段落（三个以上换行折叠为两个），否则合并为单行
	KeepParagraphs bool
}

// SuggestionMode 面板建议模式，maxLength 为调用方请求的 token 上限
func SuggestionMode(maxLength int) Mode {
	tokens := suggestionTokenCeiling
	if maxLength > 0 && maxLength < tokens {
		tokens = maxLength
	}
	return Mode{
		Kind:         KindSuggestion,
		SystemPrompt: suggestionSystemPrompt,
		Sampling: service.Sampling{
			MaxTokens:        tokens,
			Temperature:      0.5,
			PresencePenalty:  0.4,
			FrequencyPenalty: 0.25,
			TopP:             0.92,
		},
		WordCap:        20,
		TailWindow:     100,
		MaxOverlap:     50,
		KeepParagraphs: true,
	}
}

// InlineMode 光标处内联补全模式
func InlineMode() Mode {
	return Mode{
		Kind:         KindInline,
		SystemPrompt: inlineSystemPrompt,
		Sampling: service.Sampling{
			MaxTokens:        inlineTokenCeiling,
			Temperature:      0.45,
			PresencePenalty:  0.5,
			FrequencyPenalty: 0.3,
			TopP:             0.9,
		},
		Retry: &service.Sampling{
			MaxTokens:        inlineTokenCeiling,
			Temperature:      0.65,
			PresencePenalty:  0.4,
			FrequencyPenalty: 0.2,
			TopP:             0.95,
		},
		MinWords:   2,
		WordCap:    6,
		TailWindow: 50,
		MaxOverlap: 25,
	}
}
