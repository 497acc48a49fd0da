// Package handler 提供 HTTP 请求处理器
package handler

import (
	"strings"

	"novel-copilot-api/internal/application/storycontext"
	"novel-copilot-api/internal/interfaces/http/dto"
	"novel-copilot-api/internal/interfaces/http/middleware"
	"novel-copilot-api/pkg/errors"
	"novel-copilot-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ContextHandler 故事上下文管理处理器，每个用户一份上下文
type ContextHandler struct {
	registry *storycontext.Registry
}

// NewContextHandler 创建上下文处理器
func NewContextHandler(registry *storycontext.Registry) *ContextHandler {
	return &ContextHandler{registry: registry}
}

// mutate 修改当前用户的上下文并尽力保存快照
func (h *ContextHandler) mutate(c *gin.Context, fn func(s *storycontext.Store)) {
	ctx := c.Request.Context()
	owner := middleware.GetUserIDFromGin(c)

	store := h.registry.Get(ctx, owner)
	fn(store)
	if err := h.registry.Persist(ctx, owner, store); err != nil {
		logger.Warn(ctx, "failed to persist story context", "error", err.Error())
	}
	dto.Success(c, store.Snapshot())
}

// AddCharacter 添加或替换人物
func (h *ContextHandler) AddCharacter(c *gin.Context) {
	var req dto.AddCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		dto.BadRequest(c, "name is required")
		return
	}
	h.mutate(c, func(s *storycontext.Store) {
		s.AddCharacter(name, req.Description, req.Traits)
	})
}

// UpdateWorldInfo 逐键写入世界观设定
func (h *ContextHandler) UpdateWorldInfo(c *gin.Context) {
	var req map[string]any
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "world info must be a JSON object")
		return
	}
	h.mutate(c, func(s *storycontext.Store) {
		for k, v := range req {
			s.UpdateWorldInfo(k, v)
		}
	})
}

// SetStyle 设置风格偏好，未知键被忽略
func (h *ContextHandler) SetStyle(c *gin.Context) {
	var req dto.StyleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	h.mutate(c, func(s *storycontext.Store) {
		s.SetStylePreference(req.Key, req.Value)
	})
}

// SetScene 设置当前场景
func (h *ContextHandler) SetScene(c *gin.Context) {
	var req dto.SceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	h.mutate(c, func(s *storycontext.Store) {
		s.SetCurrentScene(req.Scene)
	})
}

// AddChapterSummary 添加章节摘要
func (h *ContextHandler) AddChapterSummary(c *gin.Context) {
	var req dto.ChapterSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	h.mutate(c, func(s *storycontext.Store) {
		s.AddChapterSummary(req.ChapterID, req.Summary)
	})
}

// AddHistory 追加写作历史，历史不随快照保存
func (h *ContextHandler) AddHistory(c *gin.Context) {
	var req dto.HistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	store := h.registry.Get(c.Request.Context(), middleware.GetUserIDFromGin(c))
	store.AddToHistory(req.Text, req.ChapterID)
	dto.Success(c, gin.H{"history": store.History()})
}

// Get 返回完整上下文
func (h *ContextHandler) Get(c *gin.Context) {
	store := h.registry.Get(c.Request.Context(), middleware.GetUserIDFromGin(c))
	dto.Success(c, gin.H{
		"context": store.Snapshot(),
		"history": store.History(),
	})
}

// Export 导出上下文 JSON
func (h *ContextHandler) Export(c *gin.Context) {
	store := h.registry.Get(c.Request.Context(), middleware.GetUserIDFromGin(c))
	data, err := store.Export()
	if err != nil {
		dto.Fail(c, errors.ErrInternalError.WithDetail("export story context").WithError(err))
		return
	}
	dto.Success(c, &dto.ExportContextResponse{Context: data})
}

// Import 整体替换上下文，负载非法时不做任何修改
func (h *ContextHandler) Import(c *gin.Context) {
	var req dto.ImportContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	owner := middleware.GetUserIDFromGin(c)
	store := h.registry.Get(ctx, owner)
	if err := store.Import(req.Context); err != nil {
		dto.Fail(c, errors.ErrImportFailed.WithDetail(err.Error()))
		return
	}
	if err := h.registry.Persist(ctx, owner, store); err != nil {
		logger.Warn(ctx, "failed to persist story context", "error", err.Error())
	}
	dto.Success(c, store.Snapshot())
}

// Reset 清空上下文
func (h *ContextHandler) Reset(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.registry.Reset(ctx, middleware.GetUserIDFromGin(c)); err != nil {
		logger.Warn(ctx, "failed to drop story context snapshot", "error", err.Error())
	}
	dto.NoContent(c)
}
