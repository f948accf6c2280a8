package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"neura-deck-api/pkg/logger"
)

// RequestIDHeader 透传请求 ID 的响应头
const RequestIDHeader = "X-Request-ID"

// RequestID 复用请求头中的请求 ID，缺失时生成新的，
// 并注入日志上下文与响应头。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(
			logger.WithContext(c.Request.Context(), logger.RequestIDKey, id),
		)

		c.Next()
	}
}
