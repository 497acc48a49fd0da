// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"novel-copilot-api/pkg/errors"
	"novel-copilot-api/pkg/logger"
)

// Response 统一响应结构
type Response[T any] struct {
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Data    T         `json:"data,omitempty"`
	Meta    *PageMeta `json:"meta,omitempty"`
	TraceID string    `json:"trace_id,omitempty"`
}

// PageMeta 分页元数据
type PageMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	ErrorCode   string   `json:"error_code,omitempty"`
	Details     string   `json:"details,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Error   *ErrorDetail `json:"error,omitempty"`
	TraceID string       `json:"trace_id,omitempty"`
}

func respond[T any](c *gin.Context, status int, message string, data T, meta *PageMeta) {
	c.JSON(status, Response[T]{
		Code:    status,
		Message: message,
		Data:    data,
		Meta:    meta,
		TraceID: c.GetString("trace_id"),
	})
}

func Success[T any](c *gin.Context, data T) {
	respond(c, http.StatusOK, "success", data, nil)
}

func SuccessWithPage[T any](c *gin.Context, data T, meta *PageMeta) {
	respond(c, http.StatusOK, "success", data, meta)
}

func Created[T any](c *gin.Context, data T) {
	respond(c, http.StatusCreated, "created", data, nil)
}

// Accepted 异步任务已入队
func Accepted[T any](c *gin.Context, data T) {
	respond(c, http.StatusAccepted, "accepted", data, nil)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// ErrorWithDetail 写入错误响应，detail 可为 nil
func ErrorWithDetail(c *gin.Context, status int, message string, detail *ErrorDetail) {
	c.JSON(status, ErrorResponse{
		Code:    status,
		Message: message,
		Error:   detail,
		TraceID: c.GetString("trace_id"),
	})
}

// BadRequest 参数错误统一带 1001 错误码
func BadRequest(c *gin.Context, message string) {
	ErrorWithDetail(c, http.StatusBadRequest, message, &ErrorDetail{ErrorCode: string(errors.CodeInvalidParam)})
}

func Unauthorized(c *gin.Context, message string) {
	ErrorWithDetail(c, http.StatusUnauthorized, message, &ErrorDetail{ErrorCode: string(errors.CodeUnauthorized)})
}

func InternalError(c *gin.Context, message string) {
	ErrorWithDetail(c, http.StatusInternalServerError, message, &ErrorDetail{ErrorCode: string(errors.CodeInternalError)})
}

// Abort 中间件使用：按 AppError 写响应并终止后续处理器
func Abort(c *gin.Context, appErr *errors.AppError) {
	ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, detailOf(appErr))
	c.Abort()
}

func NewPageMeta(page, pageSize, total int) *PageMeta {
	meta := &PageMeta{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		meta.TotalPages = (total + pageSize - 1) / pageSize
	}
	return meta
}

// Fail 将错误转换为统一错误响应，非 AppError 按内部错误处理
func Fail(c *gin.Context, err error) {
	ctx := c.Request.Context()
	if !errors.IsAppError(err) {
		logger.Error(ctx, "unhandled error", err)
		InternalError(c, errors.ErrInternalError.Message)
		return
	}

	appErr := errors.AsAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error(ctx, appErr.Message, err, "code", string(appErr.Code))
	}
	ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, detailOf(appErr))
}

func detailOf(appErr *errors.AppError) *ErrorDetail {
	return &ErrorDetail{
		ErrorCode: string(appErr.Code),
		Details:   appErr.Detail,
	}
}
