package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// RateLimiter 基于有序集合的滑动窗口限流器
type RateLimiter struct {
	client *Client
}

// NewRateLimiter 创建限流器实例
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// BuildClientRateLimitKey 生成按客户端 IP 与路由维度的限流键
func BuildClientRateLimitKey(clientIP, endpoint string) string {
	return fmt.Sprintf("ratelimit:%s:%s", clientIP, endpoint)
}

// Allow 判断当前请求是否放行。窗口内已有 limit 次请求时拒绝，
// 放行时把本次请求记入窗口。
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Allow")
	defer span.End()

	now := time.Now().UnixMilli()
	windowStart := now - window.Milliseconds()

	pipe := r.client.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("统计限流窗口失败: %w", err)
	}

	count := countCmd.Val()
	span.SetAttributes(attribute.Int64("ratelimit.count", count))
	if count >= int64(limit) {
		return false, nil
	}

	member := strconv.FormatInt(now, 10) + "-" + strconv.FormatInt(count, 10)
	record := r.client.rdb.Pipeline()
	record.ZAdd(ctx, key, goredis.Z{Score: float64(now), Member: member})
	record.Expire(ctx, key, window*2)
	if _, err := record.Exec(ctx); err != nil {
		return false, fmt.Errorf("记录限流请求失败: %w", err)
	}
	return true, nil
}

// Remaining 返回窗口内剩余可用的请求次数
func (r *RateLimiter) Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Remaining")
	defer span.End()

	windowStart := time.Now().UnixMilli() - window.Milliseconds()

	pipe := r.client.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("统计限流窗口失败: %w", err)
	}

	remaining := limit - int(countCmd.Val())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset 清空指定键的限流窗口
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	return r.client.rdb.Del(ctx, key).Err()
}
