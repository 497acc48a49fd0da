//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"novel-copilot-api/internal/application/continuation"
	"novel-copilot-api/internal/application/novel"
	"novel-copilot-api/internal/application/quota"
	"novel-copilot-api/internal/application/storycontext"
	"novel-copilot-api/internal/application/suggestion"
	"novel-copilot-api/internal/config"
	"novel-copilot-api/internal/domain/repository"
	"novel-copilot-api/internal/infrastructure/llm"
	"novel-copilot-api/internal/infrastructure/persistence/postgres"
	"novel-copilot-api/internal/infrastructure/persistence/redis"
	"novel-copilot-api/internal/interfaces/http/handler"
	"novel-copilot-api/internal/interfaces/http/router"
)

// InitializeApp 初始化 API 网关
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		ContinuationSet,
		ServiceSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeWorker 初始化异步任务执行器
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		ContinuationSet,
		ServiceSet,
		wire.Struct(new(Worker), "*"),
	)
	return nil, nil, nil
}

// InitializePostgresOnly 仅初始化 PostgreSQL 数据层（用于 bootstrap）
func InitializePostgresOnly(ctx context.Context, cfg *config.Config) (*PostgresOnlyDataLayer, func(), error) {
	wire.Build(
		ProvidePostgresClient,
		postgres.NewUserRepository,
		wire.Struct(new(PostgresOnlyDataLayer), "*"),
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewUserRepository,
	postgres.NewNovelRepository,
	postgres.NewChapterRepository,
	postgres.NewSuggestionRepository,
	postgres.NewLLMUsageEventRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.UserRepository), new(*postgres.UserRepository)),
	wire.Bind(new(repository.NovelRepository), new(*postgres.NovelRepository)),
	wire.Bind(new(repository.ChapterRepository), new(*postgres.ChapterRepository)),
	wire.Bind(new(repository.SuggestionRepository), new(*postgres.SuggestionRepository)),
	wire.Bind(new(repository.LLMUsageEventRepository), new(*postgres.LLMUsageEventRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	ProvideJobPublisher,
	wire.Bind(new(storycontext.KVCache), new(*redis.Cache)),
	wire.Bind(new(novel.Cache), new(*redis.Cache)),
)

// ContinuationSet 续写引擎提供者集合
var ContinuationSet = wire.NewSet(
	llm.NewEinoFactory,
	ProvideTokenCounter,
	ProvideEngine,
	ProvideSmartSuggester,
	ProvideStoryContextRegistry,
	wire.Bind(new(continuation.ChatModelFactory), new(*llm.EinoFactory)),
	wire.Bind(new(suggestion.TokenCounter), new(*llm.TokenCounter)),
)

// ServiceSet 应用服务提供者集合
var ServiceSet = wire.NewSet(
	ProvideNovelService,
	ProvideSuggestionService,
	quota.NewLLMUsageRecorder,
	quota.NewUsageReporter,
	wire.Bind(new(suggestion.ContentSource), new(*novel.Service)),
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	handler.NewAuthHandler,
	handler.NewNovelHandler,
	handler.NewSuggestionHandler,
	handler.NewAIHandler,
	handler.NewContextHandler,
	wire.Struct(new(router.Handlers), "*"),
	ProvideRouter,
)
