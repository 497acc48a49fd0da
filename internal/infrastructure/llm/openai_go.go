package llm

import (
	"context"
	"errors"
	"fmt"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"novel-copilot-api/internal/config"
	"novel-copilot-api/internal/domain/service"
)

const openAIGoType = "OpenAIGo"

// OpenAIChatModel 基于官方 openai-go SDK 的 ChatModel 实现，
// 通过 Eino callbacks 上报，与 eino-ext 驱动共享可观测链路
type OpenAIChatModel struct {
	client   openai.Client
	model    string
	sampling service.Sampling
}

var _ model.BaseChatModel = (*OpenAIChatModel)(nil)

// NewOpenAIChatModel 创建 openai-go 驱动的 ChatModel
func NewOpenAIChatModel(cfg config.ProviderConfig, sampling service.Sampling) (*OpenAIChatModel, error) {
	if !cfg.Configured() {
		return nil, service.ErrLLMNotConfigured
	}
	if cfg.Model == "" {
		return nil, errors.New("missing model name")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAIChatModel{
		client:   openai.NewClient(opts...),
		model:    cfg.Model,
		sampling: sampling,
	}, nil
}

// GetType 组件类型，用于 callbacks RunInfo
func (m *OpenAIChatModel) GetType() string {
	return openAIGoType
}

// IsCallbacksEnabled 由组件自身触发 callbacks
func (m *OpenAIChatModel) IsCallbacksEnabled() bool {
	return true
}

// Generate 实现 model.BaseChatModel
func (m *OpenAIChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (out *schema.Message, err error) {
	options := model.GetCommonOptions(&model.Options{
		Model:       &m.model,
		Temperature: &m.sampling.Temperature,
		TopP:        &m.sampling.TopP,
		MaxTokens:   &m.sampling.MaxTokens,
	}, opts...)

	conf := &model.Config{Model: *options.Model}
	if options.MaxTokens != nil {
		conf.MaxTokens = *options.MaxTokens
	}
	if options.Temperature != nil {
		conf.Temperature = *options.Temperature
	}
	if options.TopP != nil {
		conf.TopP = *options.TopP
	}

	ctx = einocb.EnsureRunInfo(ctx, m.GetType(), components.ComponentOfChatModel)
	ctx = einocb.OnStart(ctx, &model.CallbackInput{Messages: input, Config: conf})
	defer func() {
		if err != nil {
			einocb.OnError(ctx, err)
		}
	}()

	params := openai.ChatCompletionNewParams{
		Model:            shared.ChatModel(conf.Model),
		Messages:         toOpenAIMessages(input),
		PresencePenalty:  openai.Float(float64(m.sampling.PresencePenalty)),
		FrequencyPenalty: openai.Float(float64(m.sampling.FrequencyPenalty)),
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(float64(*options.Temperature))
	}
	if options.TopP != nil {
		params.TopP = openai.Float(float64(*options.TopP))
	}
	if options.MaxTokens != nil && *options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(*options.MaxTokens))
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("openai chat completion: no choices returned")
	}

	usage := &schema.TokenUsage{
		PromptTokens:     int(completion.Usage.PromptTokens),
		CompletionTokens: int(completion.Usage.CompletionTokens),
		TotalTokens:      int(completion.Usage.TotalTokens),
	}
	out = &schema.Message{
		Role:    schema.Assistant,
		Content: completion.Choices[0].Message.Content,
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: string(completion.Choices[0].FinishReason),
			Usage:        usage,
		},
	}
	if completion.Model != "" {
		conf.Model = completion.Model
	}

	einocb.OnEnd(ctx, &model.CallbackOutput{
		Message: out,
		Config:  conf,
		TokenUsage: &model.TokenUsage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		},
	})
	return out, nil
}

// Stream 续写结果很短，按单块流返回
func (m *OpenAIChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{out}), nil
}

func toOpenAIMessages(input []*schema.Message) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			msgs = append(msgs, openai.SystemMessage(msg.Content))
		case schema.Assistant:
			msgs = append(msgs, openai.AssistantMessage(msg.Content))
		default:
			msgs = append(msgs, openai.UserMessage(msg.Content))
		}
	}
	return msgs
}
