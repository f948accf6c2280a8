// Package messaging 基于 Redis Streams 的任务队列
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("messaging")

// defaultStreamMaxLen 流长度上限的兜底值
const defaultStreamMaxLen = 100000

// Producer 消息生产者，XADD 时按近似策略裁剪流长度
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = defaultStreamMaxLen
	}
	return &Producer{client: client, maxLen: maxLen}
}

// Publish 把消息序列化后追加到指定流，返回流内消息 ID
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}

	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	streamID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{"data": string(data)},
	}).Result()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", streamID))
	return streamID, nil
}

// PublishDeckGenJob 发布演示文稿生成任务，当前 trace 上下文随消息透传
func (p *Producer) PublishDeckGenJob(ctx context.Context, job *DeckGenJobMessage) (string, error) {
	msg, err := NewMessage(job.JobID, MessageTypeDeckGen, job.JobID, job.DeckID, job)
	if err != nil {
		return "", err
	}

	msg.SetMetadata("template_id", job.TemplateID)
	if traceID := trace.SpanContextFromContext(ctx).TraceID(); traceID.IsValid() {
		msg.SetMetadata("trace_id", traceID.String())
	}

	return p.Publish(ctx, StreamDeckGen, msg)
}
