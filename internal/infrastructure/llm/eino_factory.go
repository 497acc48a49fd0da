package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"novel-copilot-api/internal/config"
	"novel-copilot-api/internal/domain/service"
)

// EinoFactory 按「提供商 + 采样参数」管理 ChatModel 实例
type EinoFactory struct {
	config *config.LLMConfig
	models map[string]model.BaseChatModel
	mu     sync.RWMutex
}

// NewEinoFactory 创建 Eino LLM 工厂
func NewEinoFactory(cfg *config.Config) *EinoFactory {
	return &EinoFactory{
		config: &cfg.LLM,
		models: make(map[string]model.BaseChatModel),
	}
}

// Get 获取指定提供商与采样参数对应的 ChatModel，name 为空时使用默认提供商。
// 提供商缺失或未配置 API Key 时返回包装后的 service.ErrLLMNotConfigured。
func (f *EinoFactory) Get(ctx context.Context, name string, sampling service.Sampling) (model.BaseChatModel, error) {
	name = f.resolve(name)
	key := name + "|" + sampling.Key()

	f.mu.RLock()
	m, ok := f.models[key]
	f.mu.RUnlock()
	if ok {
		return m, nil
	}

	// 惰性加载
	f.mu.Lock()
	defer f.mu.Unlock()

	// 再次检查防止竞态
	if m, ok = f.models[key]; ok {
		return m, nil
	}

	providerCfg, ok := f.config.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config: %w", name, service.ErrLLMNotConfigured)
	}
	if !providerCfg.Configured() {
		return nil, fmt.Errorf("provider %s has no api key: %w", name, service.ErrLLMNotConfigured)
	}

	var (
		chatModel model.BaseChatModel
		err       error
	)
	switch providerCfg.Driver {
	case config.DriverOpenAIGo:
		chatModel, err = NewOpenAIChatModel(providerCfg, sampling)
	case config.DriverEino, "":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:           providerCfg.APIKey,
			BaseURL:          providerCfg.BaseURL,
			Model:            providerCfg.Model,
			MaxTokens:        ptr(sampling.MaxTokens),
			Temperature:      ptr(sampling.Temperature),
			TopP:             ptr(sampling.TopP),
			PresencePenalty:  ptr(sampling.PresencePenalty),
			FrequencyPenalty: ptr(sampling.FrequencyPenalty),
			Timeout:          providerCfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("provider %s: unsupported driver %q", name, providerCfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model for %s: %w", name, err)
	}

	f.models[key] = chatModel
	return chatModel, nil
}

// ModelName 提供商配置的模型名
func (f *EinoFactory) ModelName(name string) string {
	return f.config.Providers[f.resolve(name)].Model
}

// Configured 提供商是否可用
func (f *EinoFactory) Configured(name string) bool {
	p, ok := f.config.Providers[f.resolve(name)]
	return ok && p.Configured()
}

func (f *EinoFactory) resolve(name string) string {
	if name == "" {
		return f.config.DefaultProvider
	}
	return name
}

func ptr[T any](v T) *T {
	return &v
}
