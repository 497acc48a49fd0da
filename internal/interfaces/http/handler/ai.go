// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"
	"strings"

	"novel-copilot-api/internal/application/quota"
	"novel-copilot-api/internal/application/suggestion"
	"novel-copilot-api/internal/config"
	"novel-copilot-api/internal/interfaces/http/dto"
	"novel-copilot-api/internal/interfaces/http/middleware"
	"novel-copilot-api/pkg/errors"

	"github.com/gin-gonic/gin"
)

// AIHandler 续写相关的轻量接口
type AIHandler struct {
	cfg   *config.Config
	svc   *suggestion.Service
	usage *quota.UsageReporter
}

// NewAIHandler 创建 AI 处理器，usage 为 nil 时用量接口不可用
func NewAIHandler(cfg *config.Config, svc *suggestion.Service, usage *quota.UsageReporter) *AIHandler {
	return &AIHandler{
		cfg:   cfg,
		svc:   svc,
		usage: usage,
	}
}

// Inline 光标处补全，失败时返回 success=false 而不是错误状态码
// @Summary 内联补全
// @Tags AI
// @Accept json
// @Produce json
// @Param body body dto.InlineRequest true "补全请求"
// @Success 200 {object} dto.InlineResponse
// @Router /v1/ai/inline [post]
func (h *AIHandler) Inline(c *gin.Context) {
	var req dto.InlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, dto.InlineResponse{InlineMode: true, Error: "invalid request body"})
		return
	}

	out := h.svc.Inline(c.Request.Context(), suggestion.InlineInput{
		UserID:    middleware.GetUserIDFromGin(c),
		Context:   req.Context,
		ChapterID: req.ChapterID,
	})
	c.JSON(http.StatusOK, dto.InlineResponse{
		Content:    out.Content,
		ModelUsed:  out.ModelUsed,
		InlineMode: true,
		Success:    out.Success,
		Error:      out.Error,
	})
}

// TestGenerate 单次续写，不保存结果
func (h *AIHandler) TestGenerate(c *gin.Context) {
	var req dto.TestGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	res, err := h.svc.Plain(c.Request.Context(), suggestion.PlainInput{
		UserID:     middleware.GetUserIDFromGin(c),
		Context:    req.Context,
		Style:      req.Style,
		MaxLength:  req.EffectiveMaxLength(),
		ChapterID:  req.ChapterID,
		InlineMode: req.InlineMode,
	})
	if err != nil {
		dto.Fail(c, err)
		return
	}

	suggestionType := req.SuggestionType
	if suggestionType == "" {
		suggestionType = "text_completion"
	}
	dto.Success(c, &dto.TestGenerateResponse{
		Content:        res.Text,
		SuggestionType: suggestionType,
		ModelUsed:      res.Model,
		InlineMode:     req.InlineMode,
		Success:        true,
	})
}

// Health 报告续写后端是否已配置
// @Summary AI 后端状态
// @Tags AI
// @Produce json
// @Success 200 {object} dto.AIHealthResponse
// @Router /v1/ai/health [get]
func (h *AIHandler) Health(c *gin.Context) {
	name, providerCfg := resolveProvider(h.cfg)
	c.JSON(http.StatusOK, dto.AIHealthResponse{
		Status:           "healthy",
		Provider:         name,
		Model:            providerCfg.Model,
		OpenAIConfigured: providerCfg.Configured(),
		APIKeySet:        strings.TrimSpace(providerCfg.APIKey) != "",
		Environment:      h.cfg.App.Env,
	})
}

// Usage 当前用户当日的 token 用量
func (h *AIHandler) Usage(c *gin.Context) {
	if h.usage == nil {
		dto.Fail(c, errors.ErrServiceUnavailable.WithDetail("usage reporting is disabled"))
		return
	}

	usage, err := h.usage.Today(c.Request.Context(), middleware.GetUserIDFromGin(c))
	if err != nil {
		dto.Fail(c, errors.ErrDatabase.WithDetail("daily usage").WithError(err))
		return
	}
	dto.Success(c, usage)
}
