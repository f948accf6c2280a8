package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"neura-deck-api/pkg/logger"
)

// Trace OpenTelemetry 追踪中间件
func Trace(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// TraceContext 把当前 span 的 trace_id/span_id 写入日志上下文与响应头。
// 需要挂在 Trace 之后。
func TraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		sc := trace.SpanFromContext(c.Request.Context()).SpanContext()
		if !sc.IsValid() {
			c.Next()
			return
		}

		traceID, spanID := sc.TraceID().String(), sc.SpanID().String()
		c.Set("trace_id", traceID)
		c.Set("span_id", spanID)
		c.Header("X-Trace-ID", traceID)

		ctx := logger.WithContext(c.Request.Context(), logger.TraceIDKey, traceID)
		ctx = logger.WithContext(ctx, logger.SpanIDKey, spanID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
