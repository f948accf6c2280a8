// Package redis 提供 Redis 缓存、限流与消息流的连接管理
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"neura-deck-api/internal/config"
)

var tracer = otel.Tracer("redis")

// Client 封装 go-redis 连接，供缓存、限流与消息流复用
type Client struct {
	rdb *goredis.Client
	cfg *config.RedisConfig
}

// NewClient 按配置建立连接并完成一次连通性探测
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(probeCtx).Err(); err != nil {
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}

	return &Client{rdb: rdb, cfg: cfg}, nil
}

// Redis 返回底层 go-redis 客户端
func (c *Client) Redis() *goredis.Client {
	return c.rdb
}

// Close 关闭连接池
func (c *Client) Close() error {
	return c.rdb.Close()
}

// HealthCheck 执行 PING 并校验应答，用于健康检查端点
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "redis.HealthCheck")
	defer span.End()

	pong, err := c.rdb.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("redis 健康检查失败: %w", err)
	}
	if pong != "PONG" {
		return fmt.Errorf("redis 健康检查应答异常: %s", pong)
	}
	return nil
}

// IsNil 判断错误是否为键不存在
func IsNil(err error) bool {
	return errors.Is(err, goredis.Nil)
}
