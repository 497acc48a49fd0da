package service

import (
	"errors"
	"fmt"
)

// ErrLLMNotConfigured 生成后端未配置（缺少 API Key 等），调用方不应重试
var ErrLLMNotConfigured = errors.New("llm provider not configured")

// Sampling 一次生成调用的采样参数
type Sampling struct {
	MaxTokens        int
	Temperature      float32
	PresencePenalty  float32
	FrequencyPenalty float32
	TopP             float32
}

// Key 采样参数的稳定标识，用于缓存按参数构建的模型实例
func (s Sampling) Key() string {
	return fmt.Sprintf("t%.2f_p%.2f_f%.2f_tp%.2f_m%d",
		s.Temperature, s.PresencePenalty, s.FrequencyPenalty, s.TopP, s.MaxTokens)
}
