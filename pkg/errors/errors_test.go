package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		code ErrorCode
		want int
	}{
		{"参数错误映射 400", CodeInvalidParam, http.StatusBadRequest},
		{"资源不存在映射 404", CodeDeckNotFound, http.StatusNotFound},
		{"任务不存在映射 404", CodeJobNotFound, http.StatusNotFound},
		{"未完成资源映射 422", CodeDeckNotReady, http.StatusUnprocessableEntity},
		{"限流映射 429", CodeTooManyRequests, http.StatusTooManyRequests},
		{"提供商故障映射 503", CodeLLMProviderError, http.StatusServiceUnavailable},
		{"数据库错误映射 500", CodeDatabaseError, http.StatusInternalServerError},
		{"导出失败映射 500", CodeExportFailed, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "msg").HTTPStatus)
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, CodeCacheError, "读取缓存失败")

	assert.Equal(t, CodeCacheError, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), string(CodeCacheError))
}

func TestAsAppError(t *testing.T) {
	original := New(CodeDeckNotFound, "演示文稿不存在")

	// 包装一层后仍能提取
	wrapped := fmt.Errorf("get deck: %w", original)
	got := AsAppError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeDeckNotFound, got.Code)
	assert.True(t, IsAppError(wrapped))
	assert.True(t, IsNotFound(wrapped))

	// 普通错误按未知错误兜底
	plain := AsAppError(fmt.Errorf("boom"))
	assert.Equal(t, CodeUnknown, plain.Code)
	assert.False(t, IsNotFound(fmt.Errorf("boom")))
}

func TestWithDetail(t *testing.T) {
	err := New(CodeInvalidParam, "参数错误").WithDetail("topic 不能为空")
	assert.Equal(t, "topic 不能为空", err.Detail)
}
