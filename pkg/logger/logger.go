// Package logger 基于 log/slog 的结构化日志，按 context 自动附加追踪字段
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// ContextKey 日志上下文字段的键类型
type ContextKey string

const (
	TraceIDKey   ContextKey = "trace_id"
	SpanIDKey    ContextKey = "span_id"
	RequestIDKey ContextKey = "request_id"
	JobIDKey     ContextKey = "job_id"
	DeckIDKey    ContextKey = "deck_id"
)

// contextKeys FromContext 按此顺序提取并附加字段
var contextKeys = []ContextKey{TraceIDKey, SpanIDKey, RequestIDKey, JobIDKey, DeckIDKey}

var defaultLogger *slog.Logger

// Init 按级别与格式初始化全局日志器，format 支持 json 与 text
func Init(level string, format string) {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(level),
		AddSource: true,
	}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default 返回全局日志器，未初始化时以 info/json 初始化
func Default() *slog.Logger {
	if defaultLogger == nil {
		Init("info", "json")
	}
	return defaultLogger
}

// WithContext 把一个日志字段写入 context，供 FromContext 提取
func WithContext(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}

// FromContext 返回附加了 context 中追踪字段的日志器
func FromContext(ctx context.Context) *slog.Logger {
	log := Default()
	for _, key := range contextKeys {
		if v := ctx.Value(key); v != nil {
			log = log.With(string(key), v)
		}
	}
	return log
}

// Debug 记录 DEBUG 级别日志
func Debug(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

// Info 记录 INFO 级别日志
func Info(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

// Warn 记录 WARN 级别日志
func Warn(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

// Error 记录 ERROR 级别日志，err 非空时附加 error 字段
func Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	FromContext(ctx).Error(msg, args...)
}

// Fatal 记录错误后退出进程，仅用于启动阶段
func Fatal(ctx context.Context, msg string, err error, args ...any) {
	Error(ctx, msg, err, args...)
	os.Exit(1)
}
