// Package middleware 提供 HTTP 中间件
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperr "neura-deck-api/pkg/errors"
	"neura-deck-api/pkg/logger"
)

// Recovery 捕获处理器 panic，记录调用栈后返回 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			logger.Error(c.Request.Context(), "panic recovered",
				fmt.Errorf("%v", r),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"stack", string(debug.Stack()),
			)

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    apperr.CodeInternalError,
				"message": "internal server error",
			})
		}()

		c.Next()
	}
}
