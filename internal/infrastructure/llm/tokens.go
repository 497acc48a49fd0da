package llm

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"novel-copilot-api/pkg/logger"
)

const defaultEncodingModel = "gpt-4o-mini"

// TokenCounter 在提供商未返回用量时估算 token 数
type TokenCounter struct {
	model string

	once sync.Once
	tkm  *tiktoken.Tiktoken
}

// NewTokenCounter 创建 token 计数器，model 为空时使用 gpt-4o-mini 的编码
func NewTokenCounter(model string) *TokenCounter {
	if model == "" {
		model = defaultEncodingModel
	}
	return &TokenCounter{model: model}
}

// Count 返回文本的 token 数；编码表不可用时退化为词数
func (c *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	c.once.Do(func() {
		tkm, err := tiktoken.EncodingForModel(c.model)
		if err != nil {
			tkm, err = tiktoken.GetEncoding("cl100k_base")
		}
		if err != nil {
			logger.Default().Warn("tiktoken encoding unavailable, falling back to word count", "model", c.model, "error", err.Error())
			return
		}
		c.tkm = tkm
	})
	if c.tkm == nil {
		return len(strings.Fields(text))
	}
	return len(c.tkm.Encode(text, nil, nil))
}
