// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"novel-copilot-api/internal/application/continuation"
	"novel-copilot-api/internal/application/novel"
	"novel-copilot-api/internal/application/quota"
	"novel-copilot-api/internal/application/storycontext"
	"novel-copilot-api/internal/application/suggestion"
	"novel-copilot-api/internal/config"
	"novel-copilot-api/internal/domain/repository"
	"novel-copilot-api/internal/infrastructure/llm"
	"novel-copilot-api/internal/infrastructure/messaging"
	"novel-copilot-api/internal/infrastructure/persistence/postgres"
	"novel-copilot-api/internal/infrastructure/persistence/redis"
	"novel-copilot-api/internal/interfaces/http/handler"
	"novel-copilot-api/internal/interfaces/http/router"
	"novel-copilot-api/pkg/logger"
)

// App API 网关依赖容器
type App struct {
	Router        *router.Router
	UsageRecorder *quota.LLMUsageRecorder
}

// Worker 异步任务执行器依赖容器
type Worker struct {
	RedisClient   *redis.Client
	Suggestions   *suggestion.Service
	UsageRecorder *quota.LLMUsageRecorder
}

// PostgresOnlyDataLayer 仅包含 PostgreSQL 的数据层（用于 bootstrap）
type PostgresOnlyDataLayer struct {
	PgClient *postgres.Client
	UserRepo *postgres.UserRepository
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideJobPublisher 开启异步建议时提供消息生产者，否则返回 nil
func ProvideJobPublisher(redisClient *redis.Client, cfg *config.Config) suggestion.JobPublisher {
	if !cfg.AI.AsyncSuggestions {
		return nil
	}
	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	return messaging.NewProducer(redisClient.Redis(), int64(maxLen))
}

// ProvideTokenCounter 按续写提供商的模型选择编码表
func ProvideTokenCounter(cfg *config.Config, factory *llm.EinoFactory) *llm.TokenCounter {
	return llm.NewTokenCounter(factory.ModelName(cfg.AI.Provider))
}

// ProvideEngine 提供续写引擎
func ProvideEngine(ctx context.Context, cfg *config.Config, factory continuation.ChatModelFactory) *continuation.Engine {
	engine := continuation.NewEngine(factory, cfg.AI.Provider, continuation.WithTimeout(cfg.AI.RequestTimeout))
	logger.Info(ctx, "continuation engine ready", "provider", engine.Provider(), "model", engine.ModelName())
	return engine
}

// ProvideSmartSuggester 提供多候选建议生成器
func ProvideSmartSuggester(cfg *config.Config, engine *continuation.Engine) *continuation.SmartSuggester {
	return continuation.NewSmartSuggester(engine, cfg.AI.SmartAttempts, cfg.AI.SmartPause)
}

// ProvideStoryContextRegistry 提供按用户的故事上下文注册表，快照保存在 Redis
func ProvideStoryContextRegistry(cfg *config.Config, cache storycontext.KVCache) *storycontext.Registry {
	return storycontext.NewRegistry(cache, cfg.AI.ContextTTL,
		storycontext.WithStoreOptions(storycontext.WithHistoryCapacity(cfg.AI.HistoryCapacity)),
		storycontext.WithMaxStores(cfg.AI.MaxContextStores),
	)
}

// ProvideNovelService 提供小说与章节服务
func ProvideNovelService(
	cfg *config.Config,
	novels repository.NovelRepository,
	chapters repository.ChapterRepository,
	tx repository.Transactor,
	cache novel.Cache,
) *novel.Service {
	return novel.NewService(novels, chapters, tx, cache, cfg.Cache.LookupTTL)
}

// ProvideSuggestionService 提供建议服务
func ProvideSuggestionService(
	cfg *config.Config,
	engine *continuation.Engine,
	smart *continuation.SmartSuggester,
	repo repository.SuggestionRepository,
	source suggestion.ContentSource,
	contexts *storycontext.Registry,
	counter suggestion.TokenCounter,
	publisher suggestion.JobPublisher,
) *suggestion.Service {
	opts := []suggestion.Option{suggestion.WithChapterTailChars(cfg.AI.ChapterTailChars)}
	if publisher != nil {
		opts = append(opts, suggestion.WithPublisher(publisher))
	}
	return suggestion.NewService(engine, smart, repo, source, contexts, counter, opts...)
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, redisClient *redis.Client) *handler.HealthHandler {
	return handler.NewHealthHandler(cfg.App.Version, pg, redisClient)
}

// ProvideRouter 提供路由器，开启限流时使用 Redis 滑动窗口
func ProvideRouter(cfg *config.Config, handlers *router.Handlers, limiter *redis.RateLimiter) *router.Router {
	return router.New(cfg, handlers, router.WithRateLimiter(limiter, redis.BuildRateLimitKey))
}
