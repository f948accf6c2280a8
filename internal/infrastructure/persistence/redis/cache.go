package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"neura-deck-api/pkg/logger"
)

// Cache 基于 Redis 的 JSON 对象缓存，读穿场景用 singleflight 抑制击穿
type Cache struct {
	client *Client
	group  singleflight.Group
}

// NewCache 创建缓存实例
func NewCache(client *Client) *Cache {
	return &Cache{client: client}
}

// BuildDeckKey 生成幻灯片大纲的缓存键
func BuildDeckKey(deckID string) string {
	return fmt.Sprintf("deck:%s", deckID)
}

// Get 读取缓存原始字节，键不存在时返回 redis.Nil
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "cache.Get")
	defer span.End()

	data, err := c.client.rdb.Get(ctx, key).Bytes()
	span.SetAttributes(attribute.Bool("cache.hit", err == nil))
	return data, err
}

// Set 将对象序列化为 JSON 后写入缓存
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "cache.Set")
	defer span.End()

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("序列化缓存对象失败: %w", err)
	}
	return c.client.rdb.Set(ctx, key, payload, ttl).Err()
}

// Delete 删除一个或多个缓存键
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	ctx, span := tracer.Start(ctx, "cache.Delete")
	defer span.End()

	return c.client.rdb.Del(ctx, keys...).Err()
}

// GetOrLoadSafe 缓存未命中时经 singleflight 回源加载并回填。
// 同一个键的并发未命中只会触发一次 loader。
func (c *Cache) GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "cache.GetOrLoadSafe")
	defer span.End()

	if data, err := c.client.rdb.Get(ctx, key).Bytes(); err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return data, nil
	} else if !IsNil(err) {
		return nil, fmt.Errorf("读取缓存失败: %w", err)
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		// 并发请求可能已由先行者回填
		if data, err := c.client.rdb.Get(ctx, key).Bytes(); err == nil {
			return data, nil
		}

		value, err := loader()
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("序列化回源结果失败: %w", err)
		}

		// 回填失败不影响本次返回
		if err := c.client.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
			logger.Warn(ctx, "缓存回填失败", "key", key, "error", err)
		}
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
