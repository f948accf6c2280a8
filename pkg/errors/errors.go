// Package errors 定义业务错误码与携带 HTTP 语义的应用错误
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeNotFound           ErrorCode = "1002"
	CodeConflict           ErrorCode = "1003"
	CodeTooManyRequests    ErrorCode = "1004"
	CodeInternalError      ErrorCode = "1005"
	CodeServiceUnavailable ErrorCode = "1006"

	// 资源错误 (2xxx)
	CodeDeckNotFound    ErrorCode = "2001"
	CodeJobNotFound     ErrorCode = "2002"
	CodeDeckNotReady    ErrorCode = "2003"
	CodeTemplateInvalid ErrorCode = "2004"

	// 业务错误 (3xxx)
	CodeGenerationFailed ErrorCode = "3001"
	CodeOutlineInvalid   ErrorCode = "3002"
	CodeResearchFailed   ErrorCode = "3003"
	CodeLLMCallFailed    ErrorCode = "3004"
	CodeExportFailed     ErrorCode = "3005"

	// 外部服务错误 (4xxx)
	CodeDatabaseError    ErrorCode = "4001"
	CodeCacheError       ErrorCode = "4002"
	CodeQueueError       ErrorCode = "4003"
	CodeLLMProviderError ErrorCode = "4004"
	CodeSearchAPIError   ErrorCode = "4005"
)

// httpStatusOf 错误码到 HTTP 状态码的映射
func httpStatusOf(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeTemplateInvalid:
		return http.StatusBadRequest
	case CodeNotFound, CodeDeckNotFound, CodeJobNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeDeckNotReady:
		return http.StatusUnprocessableEntity
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable, CodeLLMProviderError, CodeSearchAPIError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// AppError 带错误码与 HTTP 语义的应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// New 按错误码创建应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatusOf(code),
	}
}

// Wrap 把底层错误包装为应用错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	e := New(code, message)
	e.Err = err
	return e
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail 附加面向调用方的细节描述
func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail
	return e
}

// WithError 附加底层错误
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// IsAppError 判断错误链上是否有应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// IsNotFound 判断错误是否表示资源不存在
func IsNotFound(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.HTTPStatus == http.StatusNotFound
}

// AsAppError 提取错误链上的应用错误，没有则按未知错误包装
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}
