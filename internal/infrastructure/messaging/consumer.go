package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"neura-deck-api/pkg/logger"
	"neura-deck-api/pkg/metrics"
)

// MessageHandler 消息处理函数，返回错误表示处理失败、消息保留待重试
type MessageHandler func(ctx context.Context, msg *Message) error

// ConsumerConfig 消费者配置
type ConsumerConfig struct {
	Stream        Stream
	Group         ConsumerGroup
	ConsumerName  string
	BlockTimeout  time.Duration
	ClaimInterval time.Duration
	RetryLimit    int
	Backoff       BackoffConfig
}

// Consumer 基于 Redis Streams 消费者组的任务消费者。
// 失败消息按退避重投，超过重试上限后移入死信队列；
// 其它消费者实例崩溃遗留的 pending 消息由定时巡检接管。
type Consumer struct {
	client       *redis.Client
	stream       Stream
	group        ConsumerGroup
	consumerName string

	blockTimeout  time.Duration
	claimInterval time.Duration
	reclaimIdle   time.Duration
	retryLimit    int
	backoff       BackoffConfig

	mu       sync.RWMutex
	handlers map[string]MessageHandler
	running  bool
	stopCh   chan struct{}
}

// NewConsumer 创建消费者，未填写的配置使用默认值
func NewConsumer(client *redis.Client, cfg ConsumerConfig) *Consumer {
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = 5 * time.Second
	}
	if cfg.ClaimInterval <= 0 {
		cfg.ClaimInterval = 30 * time.Second
	}
	if cfg.RetryLimit <= 0 {
		cfg.RetryLimit = 3
	}
	if cfg.Backoff.Initial <= 0 {
		cfg.Backoff = DefaultBackoffConfig()
	}

	// 接管阈值要大于最大退避，否则会抢走仍在退避等待的消息
	reclaimIdle := 5 * time.Minute
	if idle := cfg.Backoff.Max * 2; idle > reclaimIdle {
		reclaimIdle = idle
	}

	return &Consumer{
		client:        client,
		stream:        cfg.Stream,
		group:         cfg.Group,
		consumerName:  cfg.ConsumerName,
		blockTimeout:  cfg.BlockTimeout,
		claimInterval: cfg.ClaimInterval,
		reclaimIdle:   reclaimIdle,
		retryLimit:    cfg.RetryLimit,
		backoff:       cfg.Backoff,
		handlers:      make(map[string]MessageHandler),
		stopCh:        make(chan struct{}),
	}
}

// RegisterHandler 注册消息类型对应的处理函数
func (c *Consumer) RegisterHandler(msgType string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[msgType] = handler
}

// Start 创建消费者组并启动消费循环
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("消费者已在运行")
	}
	c.running = true
	c.mu.Unlock()

	err := c.client.XGroupCreateMkStream(ctx, string(c.stream), string(c.group), "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("创建消费者组失败: %w", err)
	}

	go c.run(ctx)

	logger.Info(ctx, "消费者已启动",
		"stream", string(c.stream),
		"group", string(c.group),
		"consumer", c.consumerName,
	)
	return nil
}

// Stop 通知消费循环退出
func (c *Consumer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.running = false
	close(c.stopCh)
}

func (c *Consumer) run(ctx context.Context) {
	lastClaim := time.Now()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "上下文取消，消费循环退出")
			return
		case <-c.stopCh:
			logger.Info(ctx, "消费循环退出")
			return
		default:
		}

		// 先重投到期的退避消息，再读新消息
		c.redeliverDue(ctx)

		if time.Since(lastClaim) >= c.claimInterval {
			c.reclaimStale(ctx)
			c.reportLag(ctx)
			lastClaim = time.Now()
		}

		entries, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    string(c.group),
			Consumer: c.consumerName,
			Streams:  []string{string(c.stream), ">"},
			Count:    10,
			Block:    c.blockTimeout,
		}).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Error(ctx, "读取消息流失败", err)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range entries {
			for _, xmsg := range stream.Messages {
				c.processMessage(ctx, xmsg)
			}
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, xmsg redis.XMessage) {
	ctx, span := tracer.Start(ctx, "consumer.processMessage",
		trace.WithAttributes(
			attribute.String("stream", string(c.stream)),
			attribute.String("stream.message_id", xmsg.ID),
		))
	defer span.End()

	raw, ok := xmsg.Values["data"].(string)
	if !ok {
		logger.Warn(ctx, "消息缺少 data 字段，直接确认", "stream_id", xmsg.ID)
		c.ack(ctx, xmsg.ID)
		metrics.RedisStreamProcessed.WithLabelValues(string(c.stream), "invalid").Inc()
		return
	}

	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		logger.Error(ctx, "消息格式非法", err, "stream_id", xmsg.ID)
		c.ack(ctx, xmsg.ID)
		metrics.RedisStreamProcessed.WithLabelValues(string(c.stream), "invalid").Inc()
		return
	}

	ctx = logger.WithContext(ctx, logger.JobIDKey, msg.JobID)
	ctx = logger.WithContext(ctx, logger.DeckIDKey, msg.DeckID)
	if traceID := msg.GetMetadata("trace_id"); traceID != "" {
		ctx = logger.WithContext(ctx, logger.TraceIDKey, traceID)
	}
	span.SetAttributes(attribute.String("message.type", msg.Type))

	c.mu.RLock()
	handler, found := c.handlers[msg.Type]
	c.mu.RUnlock()
	if !found {
		logger.Warn(ctx, "没有注册该类型的处理函数", "type", msg.Type)
		c.ack(ctx, xmsg.ID)
		metrics.RedisStreamProcessed.WithLabelValues(string(c.stream), "unhandled").Inc()
		return
	}

	if err := handler(ctx, &msg); err != nil {
		span.RecordError(err)
		logger.Error(ctx, "消息处理失败", err, "type", msg.Type, "stream_id", xmsg.ID)
		metrics.RedisStreamProcessed.WithLabelValues(string(c.stream), "failed").Inc()
		c.handleFailure(ctx, xmsg.ID, raw, err)
		return
	}

	c.ack(ctx, xmsg.ID)
	metrics.RedisStreamProcessed.WithLabelValues(string(c.stream), "ok").Inc()
}

func (c *Consumer) ack(ctx context.Context, streamID string) {
	if err := c.client.XAck(ctx, string(c.stream), string(c.group), streamID).Err(); err != nil {
		logger.Error(ctx, "确认消息失败", err, "stream_id", streamID)
	}
}

// handleFailure 重试次数未超限时保留 pending 等待退避重投，
// 超限则移入死信队列。
func (c *Consumer) handleFailure(ctx context.Context, streamID, raw string, cause error) {
	retries := c.retryCountOf(ctx, streamID)
	if retries >= int64(c.retryLimit) {
		logger.Warn(ctx, "消息超过重试上限，移入死信队列",
			"stream_id", streamID,
			"retries", retries,
		)
		c.moveToDLQ(ctx, raw, cause)
		c.ack(ctx, streamID)
	}
}

// retryCountOf 查询单条 pending 消息的投递次数
func (c *Consumer) retryCountOf(ctx context.Context, streamID string) int64 {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: string(c.stream),
		Group:  string(c.group),
		Start:  streamID,
		End:    streamID,
		Count:  1,
	}).Result()
	if err != nil || len(pending) == 0 {
		return 0
	}
	return pending[0].RetryCount
}

func (c *Consumer) moveToDLQ(ctx context.Context, raw string, cause error) {
	errMsg := ""
	if cause != nil {
		errMsg = cause.Error()
	}
	err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.stream.DLQStream(),
		Values: map[string]interface{}{
			"original_stream": string(c.stream),
			"data":            raw,
			"error":           errMsg,
			"failed_at":       time.Now().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		logger.Error(ctx, "写入死信队列失败", err)
	}
}

// redeliverDue 扫描本消费者的 pending 消息，
// 到达退避时间的重新处理，超过重试上限的移入死信队列。
func (c *Consumer) redeliverDue(ctx context.Context) {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream:   string(c.stream),
		Group:    string(c.group),
		Start:    "-",
		End:      "+",
		Count:    20,
		Consumer: c.consumerName,
	}).Result()
	if err != nil || len(pending) == 0 {
		return
	}

	for _, p := range pending {
		if p.RetryCount >= int64(c.retryLimit) {
			c.claimToDLQ(ctx, p.ID, 0)
			continue
		}

		wait := c.backoff.CalculateBackoff(int(p.RetryCount))
		if p.Idle < wait {
			continue
		}

		claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   string(c.stream),
			Group:    string(c.group),
			Consumer: c.consumerName,
			MinIdle:  wait,
			Messages: []string{p.ID},
		}).Result()
		if err != nil || len(claimed) == 0 {
			continue
		}
		for _, xmsg := range claimed {
			c.processMessage(ctx, xmsg)
		}
	}
}

// reclaimStale 接管其它消费者实例长期未确认的消息
func (c *Consumer) reclaimStale(ctx context.Context) {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: string(c.stream),
		Group:  string(c.group),
		Start:  "-",
		End:    "+",
		Count:  20,
	}).Result()
	if err != nil || len(pending) == 0 {
		return
	}

	for _, p := range pending {
		if p.Consumer == c.consumerName || p.Idle < c.reclaimIdle {
			continue
		}

		if p.RetryCount >= int64(c.retryLimit) {
			c.claimToDLQ(ctx, p.ID, c.reclaimIdle)
			continue
		}

		claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   string(c.stream),
			Group:    string(c.group),
			Consumer: c.consumerName,
			MinIdle:  c.reclaimIdle,
			Messages: []string{p.ID},
		}).Result()
		if err != nil || len(claimed) == 0 {
			continue
		}

		logger.Info(ctx, "接管其它消费者的遗留消息",
			"stream_id", p.ID,
			"previous_consumer", p.Consumer,
		)
		for _, xmsg := range claimed {
			c.processMessage(ctx, xmsg)
		}
	}
}

// claimToDLQ 认领一条超限消息并转入死信队列
func (c *Consumer) claimToDLQ(ctx context.Context, streamID string, minIdle time.Duration) {
	claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   string(c.stream),
		Group:    string(c.group),
		Consumer: c.consumerName,
		MinIdle:  minIdle,
		Messages: []string{streamID},
	}).Result()
	if err != nil || len(claimed) == 0 {
		return
	}

	for _, xmsg := range claimed {
		raw, _ := xmsg.Values["data"].(string)
		c.moveToDLQ(ctx, raw, fmt.Errorf("超过重试上限"))
		c.ack(ctx, xmsg.ID)
		metrics.RedisStreamProcessed.WithLabelValues(string(c.stream), "dlq").Inc()
	}
}

func (c *Consumer) reportLag(ctx context.Context) {
	groups, err := c.client.XInfoGroups(ctx, string(c.stream)).Result()
	if err != nil {
		return
	}
	for _, g := range groups {
		if g.Name != string(c.group) {
			continue
		}
		metrics.RedisStreamLag.WithLabelValues(string(c.stream), string(c.group)).Set(float64(g.Lag))
	}
}

// MonitorDLQ 周期检查死信队列长度，超过阈值时告警
func (c *Consumer) MonitorDLQ(ctx context.Context, alertThreshold int64) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			info, err := c.client.XInfoStream(ctx, c.stream.DLQStream()).Result()
			if err != nil {
				continue
			}
			if info.Length > alertThreshold {
				logger.Warn(ctx, "死信队列存在积压",
					"dlq", c.stream.DLQStream(),
					"length", info.Length,
					"threshold", alertThreshold,
				)
			}
		}
	}
}
