// Package router 提供 HTTP 路由配置
package router

import (
	"novel-copilot-api/internal/config"
	"novel-copilot-api/internal/interfaces/http/handler"
	"novel-copilot-api/internal/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers 路由依赖的处理器集合
type Handlers struct {
	Health     *handler.HealthHandler
	Auth       *handler.AuthHandler
	Novel      *handler.NovelHandler
	Suggestion *handler.SuggestionHandler
	AI         *handler.AIHandler
	Context    *handler.ContextHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers *Handlers
	limiter  middleware.RateLimiter
	keyFunc  func(clientID, route string) string
}

// Option 路由器构造选项
type Option func(*Router)

// WithRateLimiter 启用按客户端 IP 的限流
func WithRateLimiter(limiter middleware.RateLimiter, keyFunc func(clientID, route string) string) Option {
	return func(r *Router) {
		r.limiter = limiter
		r.keyFunc = keyFunc
	}
}

// New 创建新的路由器
func New(cfg *config.Config, handlers *Handlers, opts ...Option) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 按 Recovery、RequestID、Trace、Metrics、CORS、RateLimit、Auth 顺序注册
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name, r.metricsPath())...)
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics(r.metricsPath()))
	}

	cors := r.cfg.Security.CORS
	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   cors.AllowedOrigins,
		AllowedMethods:   cors.AllowedMethods,
		AllowedHeaders:   cors.AllowedHeaders,
		AllowCredentials: cors.AllowCredentials,
	}))

	r.engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:           r.cfg.Security.RateLimit.Enabled,
		RequestsPerMinute: r.cfg.Security.RateLimit.RequestsPerMinute,
		KeyFunc:           r.keyFunc,
	}, r.limiter))

	r.engine.Use(middleware.Auth(middleware.AuthConfig{
		Secret:    r.cfg.Security.JWT.Secret,
		Issuer:    r.cfg.Security.JWT.Issuer,
		SkipPaths: middleware.DefaultSkipPaths,
		Enabled:   r.cfg.Security.JWT.Enabled,
	}))
}

func (r *Router) metricsPath() string {
	if path := r.cfg.Observability.Metrics.Path; path != "" {
		return path
	}
	return "/metrics"
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	h := r.handlers

	r.engine.GET("/health", h.Health.Health)
	r.engine.GET("/ready", h.Health.Ready)
	r.engine.GET("/live", h.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.metricsPath(), gin.WrapH(promhttp.Handler()))
	}

	registerV1Routes(r.engine.Group("/v1"), h)
}

func registerV1Routes(v1 *gin.RouterGroup, h *Handlers) {
	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/logout", h.Auth.Logout)
	}

	novels := v1.Group("/novels")
	{
		novels.GET("", h.Novel.ListNovels)
		novels.POST("", h.Novel.CreateNovel)
		novels.GET("/:id", h.Novel.GetNovel)
		novels.PUT("/:id", h.Novel.UpdateNovel)
		novels.DELETE("/:id", h.Novel.DeleteNovel)

		novels.GET("/:id/chapters", h.Novel.ListChapters)
		novels.POST("/:id/chapters", h.Novel.CreateChapter)
	}

	chapters := v1.Group("/chapters")
	{
		chapters.GET("/:cid", h.Novel.GetChapter)
		chapters.PUT("/:cid", h.Novel.UpdateChapter)
		chapters.DELETE("/:cid", h.Novel.DeleteChapter)
	}

	ai := v1.Group("/ai")
	{
		ai.POST("/inline", h.AI.Inline)
		ai.POST("/test-generate", h.AI.TestGenerate)
		ai.GET("/health", h.AI.Health)
		ai.GET("/usage", h.AI.Usage)

		suggestions := ai.Group("/suggestions")
		suggestions.POST("", h.Suggestion.Generate)
		suggestions.GET("", h.Suggestion.List)
		suggestions.POST("/jobs", h.Suggestion.Enqueue)
		suggestions.GET("/:id", h.Suggestion.Get)
		suggestions.PATCH("/:id", h.Suggestion.Update)
		suggestions.DELETE("/:id", h.Suggestion.Delete)
	}

	storyCtx := v1.Group("/context")
	{
		storyCtx.GET("", h.Context.Get)
		storyCtx.DELETE("", h.Context.Reset)
		storyCtx.GET("/export", h.Context.Export)
		storyCtx.POST("/import", h.Context.Import)
		storyCtx.POST("/characters", h.Context.AddCharacter)
		storyCtx.POST("/world-info", h.Context.UpdateWorldInfo)
		storyCtx.POST("/style", h.Context.SetStyle)
		storyCtx.POST("/scene", h.Context.SetScene)
		storyCtx.POST("/chapter-summaries", h.Context.AddChapterSummary)
		storyCtx.POST("/history", h.Context.AddHistory)
	}
}
