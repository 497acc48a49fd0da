package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-copilot-api/internal/application/novel"
	"novel-copilot-api/internal/application/storycontext"
	"novel-copilot-api/internal/application/suggestion"
	"novel-copilot-api/internal/config"
	"novel-copilot-api/internal/interfaces/http/handler"
	"novel-copilot-api/pkg/utils"
)

type checker struct{ err error }

func (c checker) HealthCheck(context.Context) error { return c.err }

type denyLimiter struct{ calls int }

func (l *denyLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	l.calls++
	return l.calls <= 1, nil
}

func (l *denyLimiter) Remaining(context.Context, string, int, time.Duration) (int, error) {
	return 0, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "novel-copilot-api"
	cfg.App.Env = "test"
	cfg.Security.JWT.Secret = "test-secret"
	cfg.Security.JWT.Issuer = "novel-copilot-api"
	cfg.LLM.DefaultProvider = "openai"
	cfg.LLM.Providers = map[string]config.ProviderConfig{
		"openai": {APIKey: "your-openai-api-key-here", Model: "gpt-4o-mini"},
	}
	return cfg
}

func newTestRouter(cfg *config.Config, redisErr error, opts ...Option) *Router {
	gin.SetMode(gin.TestMode)

	registry := storycontext.NewRegistry(nil, time.Hour)
	suggestions := suggestion.NewService(nil, nil, nil, nil, registry, nil)
	handlers := &Handlers{
		Health:     handler.NewHealthHandler("test", checker{}, checker{err: redisErr}),
		Auth:       handler.NewAuthHandler(cfg, nil),
		Novel:      handler.NewNovelHandler(novel.NewService(nil, nil, nil, nil, 0)),
		Suggestion: handler.NewSuggestionHandler(suggestions),
		AI:         handler.NewAIHandler(cfg, suggestions, nil),
		Context:    handler.NewContextHandler(registry),
	}
	return New(cfg, handlers, opts...)
}

func do(r *Router, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRouter_HealthEndpoints(t *testing.T) {
	r := newTestRouter(testConfig(), nil)

	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	down := newTestRouter(testConfig(), errors.New("connection refused"))
	w = do(down, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode(t, w)
	assert.Equal(t, "not_ready", body["status"])
}

func TestRouter_ContextLifecycleAsAnonymous(t *testing.T) {
	r := newTestRouter(testConfig(), nil)

	w := do(r, http.MethodPost, "/v1/context/characters", `{"name":"Alice","description":"a sailor","traits":["brave"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/v1/context/world-info", `{"era":"steam","magic":false}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/v1/context/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	exported := decode(t, w)["data"].(map[string]any)["context"].(string)
	assert.Contains(t, exported, "Alice")
	assert.Contains(t, exported, "steam")

	w = do(r, http.MethodPost, "/v1/context/import", `{"context":"{not json"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodPost, "/v1/context/import", `{"context":"null"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/v1/context", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Alice", "failed import leaves context untouched")

	w = do(r, http.MethodDelete, "/v1/context", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, "/v1/context", "")
	assert.NotContains(t, w.Body.String(), "Alice")
}

func TestRouter_InlineShortContextDegrades(t *testing.T) {
	r := newTestRouter(testConfig(), nil)

	w := do(r, http.MethodPost, "/v1/ai/inline", `{"context":"short"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "", body["content"])
	assert.Equal(t, false, body["success"])
	assert.Equal(t, true, body["inline_mode"])
}

func TestRouter_AIHealthReportsPlaceholderKey(t *testing.T) {
	r := newTestRouter(testConfig(), nil)

	w := do(r, http.MethodGet, "/v1/ai/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["openai_configured"])
	assert.Equal(t, true, body["api_key_set"])
	assert.Equal(t, "gpt-4o-mini", body["model"])
}

func TestRouter_ErrorMapping(t *testing.T) {
	r := newTestRouter(testConfig(), nil)

	w := do(r, http.MethodGet, "/v1/novels/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "1001", body["error"].(map[string]any)["error_code"])

	w = do(r, http.MethodPost, "/v1/ai/suggestions/jobs", `{"context":"The ship"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(r, http.MethodGet, "/v1/ai/usage", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_AuthEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.Security.JWT.Enabled = true
	r := newTestRouter(cfg, nil)

	w := do(r, http.MethodGet, "/v1/context", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	jwtManager := utils.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer)
	pair, err := jwtManager.GenerateTokenPair("user-1", "u@example.com", "member", time.Minute, time.Hour)
	require.NoError(t, err)

	w = do(r, http.MethodGet, "/v1/context", "", "Authorization", "Bearer "+pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "refresh tokens cannot call the API")

	w = do(r, http.MethodPost, "/v1/context/scene", `{"scene":"harbor"}`, "Authorization", "Bearer "+pair.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)

	other, err := jwtManager.GenerateToken("user-2", "o@example.com", "member", utils.TokenTypeAccess, time.Minute)
	require.NoError(t, err)
	w = do(r, http.MethodGet, "/v1/context", "", "Authorization", "Bearer "+other)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "harbor", "contexts are kept per user")
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimit.Enabled = true
	cfg.Security.RateLimit.RequestsPerMinute = 1
	limiter := &denyLimiter{}
	r := newTestRouter(cfg, nil, WithRateLimiter(limiter, nil))

	w := do(r, http.MethodGet, "/v1/ai/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = do(r, http.MethodGet, "/v1/ai/health", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}
