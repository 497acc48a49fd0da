package continuation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"novel-copilot-api/internal/application/storycontext"
	"novel-copilot-api/internal/domain/service"
	"novel-copilot-api/pkg/logger"
	"novel-copilot-api/pkg/metrics"
)

// DefaultTimeout 单次生成调用的默认超时
const DefaultTimeout = 20 * time.Second

// ErrNotConfigured 生成后端未配置，属于配置错误，不重试
var ErrNotConfigured = service.ErrLLMNotConfigured

// GenerationError 生成后端调用失败
type GenerationError struct {
	Mode Kind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Mode, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ChatModelFactory 按提供商与采样参数提供 ChatModel
type ChatModelFactory interface {
	Get(ctx context.Context, provider string, sampling service.Sampling) (model.BaseChatModel, error)
	ModelName(provider string) string
}

// Request 一次续写请求
type Request struct {
	// Context 编辑器中待续写的文本
	Context string
	// Style 调用方指定的风格标签
	Style string
	// MaxLength 建议模式的 token 上限
	MaxLength int
	// ChapterID 与 ChapterContent 同时提供且 UseFullContext 时启用叙事上下文
	ChapterID      *int64
	ChapterContent string
	UseFullContext bool
	// WorkContext 作品层面的背景（体裁、简介）
	WorkContext string
	// Story 调用方的叙事上下文，可为 nil
	Story *storycontext.Store
	// UserID 用量流水归属
	UserID string
}

// Result 续写结果
type Result struct {
	Text             string
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Retried          bool
}

// Engine 续写引擎
type Engine struct {
	factory  ChatModelFactory
	detector StyleDetector
	provider string
	timeout  time.Duration
}

// EngineOption Engine 构造选项
type EngineOption func(*Engine)

// WithStyleDetector 替换风格检测策略
func WithStyleDetector(d StyleDetector) EngineOption {
	return func(e *Engine) {
		if d != nil {
			e.detector = d
		}
	}
}

// WithTimeout 设置单次生成调用超时
func WithTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine 创建续写引擎，factory 为 nil 时所有生成请求返回 ErrNotConfigured
func NewEngine(factory ChatModelFactory, provider string, opts ...EngineOption) *Engine {
	e := &Engine{
		factory:  factory,
		detector: HeuristicDetector{},
		provider: strings.TrimSpace(provider),
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Provider 当前使用的 LLM 提供商
func (e *Engine) Provider() string {
	return e.provider
}

// ModelName 当前提供商配置的模型名
func (e *Engine) ModelName() string {
	if e.factory == nil {
		return ""
	}
	return e.factory.ModelName(e.provider)
}

// Suggest 面板建议续写
func (e *Engine) Suggest(ctx context.Context, req Request) (*Result, error) {
	return e.Generate(ctx, req, SuggestionMode(req.MaxLength))
}

// Inline 光标处内联补全
func (e *Engine) Inline(ctx context.Context, req Request) (*Result, error) {
	return e.Generate(ctx, req, InlineMode())
}

// Generate 执行完整续写流水线
func (e *Engine) Generate(ctx context.Context, req Request, mode Mode) (*Result, error) {
	start := time.Now()
	res, err := e.generate(ctx, req, mode)

	status := "success"
	switch {
	case errors.Is(err, ErrNotConfigured):
		status = "not_configured"
	case err != nil:
		status = "error"
	default:
		metrics.ContinuationWords.WithLabelValues(string(mode.Kind)).Observe(float64(WordCount(res.Text)))
	}
	metrics.ContinuationTotal.WithLabelValues(string(mode.Kind), status).Inc()
	metrics.ContinuationDuration.WithLabelValues(string(mode.Kind)).Observe(time.Since(start).Seconds())

	return res, err
}

func (e *Engine) generate(ctx context.Context, req Request, mode Mode) (*Result, error) {
	if e.factory == nil {
		return nil, ErrNotConfigured
	}

	text := strings.TrimSpace(req.Context)
	signals := e.detector.Detect(text)

	var storyContext string
	if req.UseFullContext && req.ChapterID != nil && req.ChapterContent != "" && req.Story != nil {
		bundle := req.Story.FullContext(req.ChapterContent+"\n"+text, req.ChapterID)
		storyContext = storycontext.BuildPromptContext(bundle)
	}

	prompt := BuildPrompt(PromptInput{
		Text:           text,
		WorkContext:    req.WorkContext,
		Detected:       &signals,
		RequestedStyle: req.Style,
		StoryContext:   storyContext,
	})
	msgs := []*schema.Message{
		schema.SystemMessage(mode.SystemPrompt),
		schema.UserMessage(prompt),
	}

	ctx = service.WithWorkflowProvider(ctx, service.ContinuationWorkflow(string(mode.Kind)), e.provider)
	ctx = service.WithUser(ctx, req.UserID)

	out, err := e.call(ctx, mode.Sampling, msgs)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return nil, err
		}
		return nil, &GenerationError{Mode: mode.Kind, Err: err}
	}

	res := &Result{
		Provider: e.provider,
		Model:    e.factory.ModelName(e.provider),
	}
	res.Text = Sanitize(out.Content, req.Context, mode)
	addUsage(res, out)

	if mode.Retry == nil || WordCount(res.Text) >= mode.MinWords {
		return res, nil
	}

	retryOut, err := e.call(ctx, *mode.Retry, msgs)
	if err != nil {
		logger.Warn(ctx, "continuation retry failed, keeping first result", "mode", mode.Kind, "error", err.Error())
		metrics.ContinuationRetries.WithLabelValues("error").Inc()
		return res, nil
	}
	addUsage(res, retryOut)

	retried := Sanitize(retryOut.Content, req.Context, mode)
	if WordCount(retried) >= mode.MinWords {
		res.Text = retried
		res.Retried = true
		metrics.ContinuationRetries.WithLabelValues("true").Inc()
	} else {
		metrics.ContinuationRetries.WithLabelValues("false").Inc()
	}
	return res, nil
}

func (e *Engine) call(ctx context.Context, sampling service.Sampling, msgs []*schema.Message) (*schema.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	chatModel, err := e.factory.Get(ctx, e.provider, sampling)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("failed to get chat model: %w", err)
	}

	out, err := chatModel.Generate(ctx, msgs, modelOptions(sampling)...)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("empty model response")
	}
	return out, nil
}

func modelOptions(s service.Sampling) []model.Option {
	opts := []model.Option{
		model.WithTemperature(s.Temperature),
		model.WithTopP(s.TopP),
	}
	if s.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(s.MaxTokens))
	}
	return opts
}

func addUsage(res *Result, out *schema.Message) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	res.PromptTokens += out.ResponseMeta.Usage.PromptTokens
	res.CompletionTokens += out.ResponseMeta.Usage.CompletionTokens
}
