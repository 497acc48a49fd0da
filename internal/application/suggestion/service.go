// Package suggestion 编排 AI 续写建议：上下文解析、生成、持久化与异步任务
package suggestion

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"novel-copilot-api/internal/application/continuation"
	"novel-copilot-api/internal/application/storycontext"
	"novel-copilot-api/internal/domain/entity"
	"novel-copilot-api/internal/domain/repository"
	"novel-copilot-api/internal/infrastructure/messaging"
	apperrors "novel-copilot-api/pkg/errors"
	"novel-copilot-api/pkg/logger"
)

// DefaultChapterTailChars 作为章节上下文的章节末尾字符数
const DefaultChapterTailChars = 1000

// MinInlineContext 内联补全要求的最少上下文字符数
const MinInlineContext = 10

// DefaultStyle 智能建议未指定风格时使用的风格标签
const DefaultStyle = "neutral"

// ContentSource 小说与章节的只读查询
type ContentSource interface {
	LookupNovel(ctx context.Context, id int64) (*entity.Novel, error)
	LookupChapter(ctx context.Context, id int64) (*entity.Chapter, error)
}

// TokenCounter 生成结果缺少用量时估算 token 数
type TokenCounter interface {
	Count(text string) int
}

// JobPublisher 异步建议任务发布
type JobPublisher interface {
	PublishSuggestionJob(ctx context.Context, job *messaging.SuggestionJobMessage) (string, error)
}

// Service 建议服务
type Service struct {
	engine    *continuation.Engine
	smart     *continuation.SmartSuggester
	repo      repository.SuggestionRepository
	source    ContentSource
	contexts  *storycontext.Registry
	counter   TokenCounter
	publisher JobPublisher
	tailChars int
}

// Option Service 构造选项
type Option func(*Service)

// WithPublisher 开启异步建议任务
func WithPublisher(p JobPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithChapterTailChars 设置章节上下文长度
func WithChapterTailChars(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.tailChars = n
		}
	}
}

// NewService 创建建议服务
func NewService(
	engine *continuation.Engine,
	smart *continuation.SmartSuggester,
	repo repository.SuggestionRepository,
	source ContentSource,
	contexts *storycontext.Registry,
	counter TokenCounter,
	opts ...Option,
) *Service {
	s := &Service{
		engine:    engine,
		smart:     smart,
		repo:      repo,
		source:    source,
		contexts:  contexts,
		counter:   counter,
		tailChars: DefaultChapterTailChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateInput 智能建议请求
type GenerateInput struct {
	UserID         string
	SuggestionType entity.SuggestionType
	Context        string
	NovelID        *int64
	ChapterID      *int64
	MaxLength      int
	Style          string
}

// GenerateOutput 持久化的首条建议及全部候选
type GenerateOutput struct {
	Suggestion   *entity.Suggestion
	Alternatives []string
}

// InlineInput 内联补全请求
type InlineInput struct {
	UserID    string
	Context   string
	ChapterID *int64
}

// InlineOutput 内联补全结果，失败时 Success 为 false 且 Error 非空
type InlineOutput struct {
	Content   string
	ModelUsed string
	Success   bool
	Error     string
}

// PlainInput 单次建议续写请求
type PlainInput struct {
	UserID     string
	Context    string
	Style      string
	MaxLength  int
	ChapterID  *int64
	InlineMode bool
}

// promptContext 解析出的章节与作品背景
type promptContext struct {
	chapterContent string
	workContext    string
}

// Generate 生成最多 3 条候选建议并保存第一条
func (s *Service) Generate(ctx context.Context, in GenerateInput) (*GenerateOutput, error) {
	return s.generate(ctx, in, s.contexts.Get)
}

// storyLoader 取得用户的叙事上下文
type storyLoader func(ctx context.Context, owner string) *storycontext.Store

func (s *Service) generate(ctx context.Context, in GenerateInput, story storyLoader) (*GenerateOutput, error) {
	text := strings.TrimSpace(in.Context)
	if text == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("context is required")
	}

	pc, err := s.resolve(ctx, in.UserID, in.NovelID, in.ChapterID)
	if err != nil {
		return nil, err
	}

	style := strings.TrimSpace(in.Style)
	if style == "" {
		style = DefaultStyle
	}

	results, err := s.smart.Generate(ctx, continuation.Request{
		Context:        text,
		Style:          style,
		MaxLength:      in.MaxLength,
		ChapterID:      in.ChapterID,
		ChapterContent: pc.chapterContent,
		UseFullContext: true,
		WorkContext:    pc.workContext,
		Story:          story(ctx, in.UserID),
		UserID:         in.UserID,
	})
	if err != nil {
		return nil, translate(err)
	}

	alternatives := make([]string, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.Text) != "" {
			alternatives = append(alternatives, r.Text)
		}
	}
	if len(alternatives) == 0 {
		return nil, apperrors.ErrGenerationFailed.WithDetail("failed to generate suggestions")
	}

	best := results[0]
	for _, r := range results {
		if strings.TrimSpace(r.Text) != "" {
			best = r
			break
		}
	}

	kind := in.SuggestionType
	if kind == "" {
		kind = entity.SuggestionTypeContinuation
	}
	sg := &entity.Suggestion{
		UserID:         in.UserID,
		NovelID:        in.NovelID,
		ChapterID:      in.ChapterID,
		SuggestionType: kind,
		Content:        best.Text,
		Context:        in.Context,
		ModelUsed:      best.Model,
		TokensUsed:     s.tokensUsed(best),
	}
	if err := s.repo.Create(ctx, sg); err != nil {
		return nil, apperrors.ErrDatabase.WithDetail("save suggestion").WithError(err)
	}

	logger.Info(ctx, "suggestion generated", "suggestion_id", sg.ID, "alternatives", len(alternatives))
	return &GenerateOutput{Suggestion: sg, Alternatives: alternatives}, nil
}

// Inline 光标处补全；任何失败都降级为空结果，不返回错误
func (s *Service) Inline(ctx context.Context, in InlineInput) *InlineOutput {
	if len([]rune(in.Context)) < MinInlineContext {
		return &InlineOutput{}
	}

	pc, err := s.resolve(ctx, in.UserID, nil, in.ChapterID)
	if err != nil {
		logger.Debug(ctx, "inline continuation without chapter context", "error", err.Error())
		pc = promptContext{}
	}

	res, err := s.engine.Inline(ctx, continuation.Request{
		Context:        in.Context,
		Style:          DefaultStyle,
		ChapterID:      in.ChapterID,
		ChapterContent: pc.chapterContent,
		UseFullContext: true,
		WorkContext:    pc.workContext,
		Story:          s.contexts.Get(ctx, in.UserID),
		UserID:         in.UserID,
	})
	if err != nil {
		logger.Warn(ctx, "inline continuation failed", "error", err.Error())
		return &InlineOutput{Error: err.Error()}
	}
	return &InlineOutput{
		Content:   strings.TrimSpace(res.Text),
		ModelUsed: res.Model,
		Success:   true,
	}
}

// Plain 单次续写，不持久化
func (s *Service) Plain(ctx context.Context, in PlainInput) (*continuation.Result, error) {
	req := continuation.Request{
		Context:        in.Context,
		Style:          in.Style,
		MaxLength:      in.MaxLength,
		ChapterID:      in.ChapterID,
		UseFullContext: true,
		Story:          s.contexts.Get(ctx, in.UserID),
		UserID:         in.UserID,
	}
	if req.Style == "" {
		req.Style = DefaultStyle
	}

	var (
		res *continuation.Result
		err error
	)
	if in.InlineMode {
		res, err = s.engine.Inline(ctx, req)
	} else {
		res, err = s.engine.Suggest(ctx, req)
	}
	if err != nil {
		return nil, translate(err)
	}
	return res, nil
}

// Get 获取用户自己的建议
func (s *Service) Get(ctx context.Context, userID string, id int64) (*entity.Suggestion, error) {
	sg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.ErrDatabase.WithDetail("get suggestion").WithError(err)
	}
	if sg == nil {
		return nil, apperrors.ErrSuggestionNotFound
	}
	if !sg.IsOwnedBy(userID) {
		return nil, apperrors.ErrForbidden
	}
	return sg, nil
}

// List 按条件列出用户的建议
func (s *Service) List(ctx context.Context, userID string, filter *repository.SuggestionFilter, p repository.Pagination) (*repository.PagedResult[*entity.Suggestion], error) {
	result, err := s.repo.ListByUser(ctx, userID, filter, p)
	if err != nil {
		return nil, apperrors.ErrDatabase.WithDetail("list suggestions").WithError(err)
	}
	return result, nil
}

// Feedback 标记采纳或评分，rating 必须在 1..5 内
func (s *Service) Feedback(ctx context.Context, userID string, id int64, isUsed *bool, rating *int) (*entity.Suggestion, error) {
	if rating != nil && !entity.ValidRating(*rating) {
		return nil, apperrors.ErrInvalidParam.WithDetail("rating must be between 1 and 5")
	}

	sg, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if isUsed != nil {
		sg.IsUsed = *isUsed
	}
	if rating != nil {
		r := *rating
		sg.Rating = &r
	}
	if err := s.repo.Update(ctx, sg); err != nil {
		return nil, apperrors.ErrDatabase.WithDetail("update suggestion").WithError(err)
	}
	return sg, nil
}

// Delete 软删除建议
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return apperrors.ErrDatabase.WithDetail("delete suggestion").WithError(err)
	}
	return nil
}

// AsyncEnabled 是否可以提交异步任务
func (s *Service) AsyncEnabled() bool {
	return s.publisher != nil
}

// Enqueue 校验请求后发布异步建议任务，返回任务 ID
func (s *Service) Enqueue(ctx context.Context, in GenerateInput, requestID string) (string, error) {
	if s.publisher == nil {
		return "", apperrors.ErrServiceUnavailable.WithDetail("async suggestions are disabled")
	}
	if strings.TrimSpace(in.Context) == "" {
		return "", apperrors.ErrInvalidParam.WithDetail("context is required")
	}
	if _, err := s.resolve(ctx, in.UserID, in.NovelID, in.ChapterID); err != nil {
		return "", err
	}

	job := &messaging.SuggestionJobMessage{
		JobID:     uuid.NewString(),
		UserID:    in.UserID,
		NovelID:   in.NovelID,
		ChapterID: in.ChapterID,
		Context:   in.Context,
		Style:     in.Style,
		MaxLength: in.MaxLength,
		RequestID: requestID,
	}
	if _, err := s.publisher.PublishSuggestionJob(ctx, job); err != nil {
		return "", apperrors.ErrMessaging.WithDetail("publish suggestion job").WithError(err)
	}
	logger.Info(ctx, "suggestion job queued", "job_id", job.JobID)
	return job.JobID, nil
}

// HandleJob 处理异步建议任务；配置错误与参数错误不可重试
func (s *Service) HandleJob(ctx context.Context, msg *messaging.Message) error {
	var job messaging.SuggestionJobMessage
	if err := msg.UnmarshalPayload(&job); err != nil {
		return errors.Join(messaging.ErrPermanent, err)
	}

	// worker 与网关不共享内存，每个任务都按最新快照构建上下文
	out, err := s.generate(ctx, GenerateInput{
		UserID:    job.UserID,
		Context:   job.Context,
		NovelID:   job.NovelID,
		ChapterID: job.ChapterID,
		MaxLength: job.MaxLength,
		Style:     job.Style,
	}, s.contexts.Load)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && (appErr.HTTPStatus < 500 || appErr.Code == apperrors.CodeLLMNotConfigured) {
			return errors.Join(messaging.ErrPermanent, err)
		}
		return err
	}

	logger.Info(ctx, "suggestion job completed", "job_id", job.JobID, "suggestion_id", out.Suggestion.ID)
	return nil
}

// resolve 读取章节末尾与作品背景并检查读权限
func (s *Service) resolve(ctx context.Context, userID string, novelID, chapterID *int64) (promptContext, error) {
	var pc promptContext

	var novel *entity.Novel
	if chapterID != nil {
		ch, err := s.source.LookupChapter(ctx, *chapterID)
		if err != nil {
			return pc, err
		}
		pc.chapterContent = ch.Tail(s.tailChars)
		if novel, err = s.source.LookupNovel(ctx, ch.NovelID); err != nil {
			return pc, err
		}
	} else if novelID != nil {
		var err error
		if novel, err = s.source.LookupNovel(ctx, *novelID); err != nil {
			return pc, err
		}
	}

	if novel != nil {
		if !novel.CanRead(userID) {
			return pc, apperrors.ErrForbidden
		}
		pc.workContext = novel.WorkContext()
	}
	return pc, nil
}

func (s *Service) tokensUsed(r *continuation.Result) int {
	if r.CompletionTokens > 0 {
		return r.CompletionTokens
	}
	if s.counter != nil {
		return s.counter.Count(r.Text)
	}
	return continuation.WordCount(r.Text)
}

// translate 将续写错误映射为应用错误
func translate(err error) error {
	if errors.Is(err, continuation.ErrNotConfigured) {
		return apperrors.ErrLLMNotConfigured.WithError(err)
	}
	var genErr *continuation.GenerationError
	if errors.As(err, &genErr) {
		return apperrors.ErrLLMCallFailed.WithDetail(genErr.Error()).WithError(err)
	}
	return apperrors.ErrGenerationFailed.WithError(err)
}
