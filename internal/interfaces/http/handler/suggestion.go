// Package handler 提供 HTTP 请求处理器
package handler

import (
	"strings"

	"novel-copilot-api/internal/application/suggestion"
	"novel-copilot-api/internal/domain/entity"
	"novel-copilot-api/internal/domain/repository"
	"novel-copilot-api/internal/interfaces/http/dto"
	"novel-copilot-api/internal/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
)

// SuggestionHandler AI 建议处理器
type SuggestionHandler struct {
	svc *suggestion.Service
}

// NewSuggestionHandler 创建建议处理器
func NewSuggestionHandler(svc *suggestion.Service) *SuggestionHandler {
	return &SuggestionHandler{svc: svc}
}

// Generate 生成智能建议并保存首条
// @Summary 生成智能建议
// @Description 最多尝试三次生成候选，保存首条并返回全部候选
// @Tags Suggestions
// @Accept json
// @Produce json
// @Param body body dto.GenerateSuggestionRequest true "建议请求"
// @Success 201 {object} dto.Response[dto.GenerateSuggestionResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/ai/suggestions [post]
func (h *SuggestionHandler) Generate(c *gin.Context) {
	var req dto.GenerateSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	out, err := h.svc.Generate(c.Request.Context(), req.ToInput(middleware.GetUserIDFromGin(c)))
	if err != nil {
		dto.Fail(c, err)
		return
	}

	dto.Created(c, &dto.GenerateSuggestionResponse{
		SuggestionResponse: dto.ToSuggestionResponse(out.Suggestion),
		Alternatives:       out.Alternatives,
	})
}

// Enqueue 提交异步建议任务
// @Summary 提交异步建议任务
// @Tags Suggestions
// @Accept json
// @Produce json
// @Param body body dto.GenerateSuggestionRequest true "建议请求"
// @Success 202 {object} dto.Response[dto.SuggestionJobResponse]
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/ai/suggestions/jobs [post]
func (h *SuggestionHandler) Enqueue(c *gin.Context) {
	var req dto.GenerateSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	jobID, err := h.svc.Enqueue(c.Request.Context(), req.ToInput(middleware.GetUserIDFromGin(c)), middleware.GetRequestIDFromGin(c))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Accepted(c, &dto.SuggestionJobResponse{JobID: jobID, Status: "queued"})
}

// List 获取建议列表
// @Summary 获取建议列表
// @Tags Suggestions
// @Produce json
// @Param novel_id query int false "小说 ID"
// @Param chapter_id query int false "章节 ID"
// @Param suggestion_type query string false "建议类型"
// @Success 200 {object} dto.Response[dto.SuggestionListResponse]
// @Router /v1/ai/suggestions [get]
func (h *SuggestionHandler) List(c *gin.Context) {
	novelID, err := dto.BindOptionalInt64Query(c, "novel_id")
	if err != nil {
		dto.Fail(c, err)
		return
	}
	chapterID, err := dto.BindOptionalInt64Query(c, "chapter_id")
	if err != nil {
		dto.Fail(c, err)
		return
	}
	pageReq := dto.BindPage(c)

	filter := &repository.SuggestionFilter{
		NovelID:   novelID,
		ChapterID: chapterID,
		Types:     parseSuggestionTypes(c.Query("suggestion_type")),
	}
	result, err := h.svc.List(c.Request.Context(), middleware.GetUserIDFromGin(c), filter, pageReq.ToPagination())
	if err != nil {
		dto.Fail(c, err)
		return
	}

	meta := dto.NewPageMeta(result.Page, result.PageSize, int(result.Total))
	dto.SuccessWithPage(c, dto.ToSuggestionListResponse(result.Items), meta)
}

// Get 获取建议详情
func (h *SuggestionHandler) Get(c *gin.Context) {
	id, err := dto.BindInt64Param(c, "id")
	if err != nil {
		dto.Fail(c, err)
		return
	}

	sg, err := h.svc.Get(c.Request.Context(), middleware.GetUserIDFromGin(c), id)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, dto.ToSuggestionResponse(sg))
}

// Update 标记采纳或评分
func (h *SuggestionHandler) Update(c *gin.Context) {
	id, err := dto.BindInt64Param(c, "id")
	if err != nil {
		dto.Fail(c, err)
		return
	}

	var req dto.UpdateSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	sg, err := h.svc.Feedback(c.Request.Context(), middleware.GetUserIDFromGin(c), id, req.IsUsed, req.Rating)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, dto.ToSuggestionResponse(sg))
}

// Delete 软删除建议
func (h *SuggestionHandler) Delete(c *gin.Context) {
	id, err := dto.BindInt64Param(c, "id")
	if err != nil {
		dto.Fail(c, err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), middleware.GetUserIDFromGin(c), id); err != nil {
		dto.Fail(c, err)
		return
	}
	dto.NoContent(c)
}

// parseSuggestionTypes 解析逗号分隔的建议类型
func parseSuggestionTypes(raw string) []entity.SuggestionType {
	var types []entity.SuggestionType
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			types = append(types, entity.SuggestionType(part))
		}
	}
	return types
}
