package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"novel-copilot-api/internal/interfaces/http/dto"
	apperrors "novel-copilot-api/pkg/errors"
	"novel-copilot-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Recovery 捕获 panic，记录堆栈并返回统一错误响应
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error(c.Request.Context(), "panic recovered",
				fmt.Errorf("%v", rec),
				"route", c.FullPath(),
				"method", c.Request.Method,
				"stack", string(debug.Stack()),
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			dto.ErrorWithDetail(c, http.StatusInternalServerError, apperrors.ErrInternalError.Message, &dto.ErrorDetail{
				ErrorCode: string(apperrors.CodeInternalError),
			})
			c.Abort()
		}()

		c.Next()
	}
}
