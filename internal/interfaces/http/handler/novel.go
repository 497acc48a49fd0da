// Package handler 提供 HTTP 请求处理器
package handler

import (
	"novel-copilot-api/internal/application/novel"
	"novel-copilot-api/internal/domain/entity"
	"novel-copilot-api/internal/domain/repository"
	"novel-copilot-api/internal/interfaces/http/dto"
	"novel-copilot-api/internal/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
)

// NovelHandler 小说与章节处理器
type NovelHandler struct {
	svc *novel.Service
}

// NewNovelHandler 创建小说处理器
func NewNovelHandler(svc *novel.Service) *NovelHandler {
	return &NovelHandler{svc: svc}
}

// ListNovels 获取当前用户的小说列表
// @Summary 获取小说列表
// @Tags Novels
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Param genre query string false "题材"
// @Param status query string false "状态"
// @Success 200 {object} dto.Response[dto.NovelListResponse]
// @Router /v1/novels [get]
func (h *NovelHandler) ListNovels(c *gin.Context) {
	pageReq := dto.BindPage(c)
	filter := &repository.NovelFilter{
		Genre:  c.Query("genre"),
		Status: entity.NovelStatus(c.Query("status")),
	}

	result, err := h.svc.ListNovels(c.Request.Context(), middleware.GetUserIDFromGin(c), filter, pageReq.ToPagination())
	if err != nil {
		dto.Fail(c, err)
		return
	}

	meta := dto.NewPageMeta(result.Page, result.PageSize, int(result.Total))
	dto.SuccessWithPage(c, dto.ToNovelListResponse(result.Items), meta)
}

// CreateNovel 创建小说
// @Summary 创建小说
// @Tags Novels
// @Accept json
// @Produce json
// @Param body body dto.CreateNovelRequest true "小说信息"
// @Success 201 {object} dto.Response[dto.NovelResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/novels [post]
func (h *NovelHandler) CreateNovel(c *gin.Context) {
	var req dto.CreateNovelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	n, err := h.svc.CreateNovel(c.Request.Context(), middleware.GetUserIDFromGin(c), req.ToInput())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Created(c, dto.ToNovelResponse(n))
}

// GetNovel 获取小说详情
// @Summary 获取小说详情
// @Tags Novels
// @Produce json
// @Param id path int true "小说 ID"
// @Success 200 {object} dto.Response[dto.NovelResponse]
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/novels/{id} [get]
func (h *NovelHandler) GetNovel(c *gin.Context) {
	id, err := dto.BindInt64Param(c, "id")
	if err != nil {
		dto.Fail(c, err)
		return
	}

	n, err := h.svc.GetNovel(c.Request.Context(), middleware.GetUserIDFromGin(c), id)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, dto.ToNovelResponse(n))
}

// UpdateNovel 更新小说，仅作者可操作
func (h *NovelHandler) UpdateNovel(c *gin.Context) {
	id, err := dto.BindInt64Param(c, "id")
	if err != nil {
		dto.Fail(c, err)
		return
	}

	var req dto.UpdateNovelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	n, err := h.svc.UpdateNovel(c.Request.Context(), middleware.GetUserIDFromGin(c), id, req.ToPatch())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, dto.ToNovelResponse(n))
}

// DeleteNovel 删除小说及其章节
func (h *NovelHandler) DeleteNovel(c *gin.Context) {
	id, err := dto.BindInt64Param(c, "id")
	if err != nil {
		dto.Fail(c, err)
		return
	}

	if err := h.svc.DeleteNovel(c.Request.Context(), middleware.GetUserIDFromGin(c), id); err != nil {
		dto.Fail(c, err)
		return
	}
	dto.NoContent(c)
}

// ListChapters 获取小说的章节列表（不含正文）
// @Summary 获取章节列表
// @Tags Chapters
// @Produce json
// @Param id path int true "小说 ID"
// @Success 200 {object} dto.Response[dto.ChapterListResponse]
// @Router /v1/novels/{id}/chapters [get]
func (h *NovelHandler) ListChapters(c *gin.Context) {
	novelID, err := dto.BindInt64Param(c, "id")
	if err != nil {
		dto.Fail(c, err)
		return
	}
	pageReq := dto.BindPage(c)

	result, err := h.svc.ListChapters(c.Request.Context(), middleware.GetUserIDFromGin(c), novelID, pageReq.ToPagination())
	if err != nil {
		dto.Fail(c, err)
		return
	}

	meta := dto.NewPageMeta(result.Page, result.PageSize, int(result.Total))
	dto.SuccessWithPage(c, dto.ToChapterListResponse(result.Items), meta)
}

// CreateChapter 创建章节
// @Summary 创建章节
// @Tags Chapters
// @Accept json
// @Produce json
// @Param id path int true "小说 ID"
// @Param body body dto.CreateChapterRequest true "章节信息"
// @Success 201 {object} dto.Response[dto.ChapterResponse]
// @Router /v1/novels/{id}/chapters [post]
func (h *NovelHandler) CreateChapter(c *gin.Context) {
	novelID, err := dto.BindInt64Param(c, "id")
	if err != nil {
		dto.Fail(c, err)
		return
	}

	var req dto.CreateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ch, err := h.svc.CreateChapter(c.Request.Context(), middleware.GetUserIDFromGin(c), novelID, req.ToInput())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Created(c, dto.ToChapterResponse(ch))
}

// GetChapter 获取章节详情
func (h *NovelHandler) GetChapter(c *gin.Context) {
	id, err := dto.BindInt64Param(c, "cid")
	if err != nil {
		dto.Fail(c, err)
		return
	}

	ch, err := h.svc.GetChapter(c.Request.Context(), middleware.GetUserIDFromGin(c), id)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, dto.ToChapterResponse(ch))
}

// UpdateChapter 更新章节，正文变化时重算字数
func (h *NovelHandler) UpdateChapter(c *gin.Context) {
	id, err := dto.BindInt64Param(c, "cid")
	if err != nil {
		dto.Fail(c, err)
		return
	}

	var req dto.UpdateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ch, err := h.svc.UpdateChapter(c.Request.Context(), middleware.GetUserIDFromGin(c), id, req.ToPatch())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, dto.ToChapterResponse(ch))
}

// DeleteChapter 删除章节
func (h *NovelHandler) DeleteChapter(c *gin.Context) {
	id, err := dto.BindInt64Param(c, "cid")
	if err != nil {
		dto.Fail(c, err)
		return
	}

	if err := h.svc.DeleteChapter(c.Request.Context(), middleware.GetUserIDFromGin(c), id); err != nil {
		dto.Fail(c, err)
		return
	}
	dto.NoContent(c)
}
