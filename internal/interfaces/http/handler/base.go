// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"neura-deck-api/internal/interfaces/http/dto"
	"neura-deck-api/pkg/errors"
	"neura-deck-api/pkg/logger"
)

// respondError 按应用错误码返回对应 HTTP 状态，未知错误统一 500
func respondError(c *gin.Context, err error, fallbackMsg string) {
	if errors.IsAppError(err) {
		appErr := errors.AsAppError(err)
		c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
			Code:      appErr.HTTPStatus,
			Message:   appErr.Message,
			ErrorCode: string(appErr.Code),
			Detail:    appErr.Detail,
			TraceID:   c.GetString("trace_id"),
		})
		return
	}
	logger.Error(c.Request.Context(), fallbackMsg, err)
	dto.InternalError(c, fallbackMsg)
}
