package messaging

import (
	"encoding/json"
	"time"
)

// Stream 消息流名称
type Stream string

const (
	StreamDeckGen Stream = "stream:deck:gen"
)

// DLQStream 返回该流对应的死信队列名称
func (s Stream) DLQStream() string {
	return "dlq:" + string(s)
}

// ConsumerGroup 消费者组名称
type ConsumerGroup string

const (
	ConsumerGroupDeckWorker ConsumerGroup = "cg-deck-worker"
)

// MessageTypeDeckGen 演示文稿生成任务的消息类型
const MessageTypeDeckGen = "deck_gen"

// Message 流上传输的消息信封，Payload 按消息类型解析
type Message struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	JobID     string            `json:"job_id"`
	DeckID    string            `json:"deck_id"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewMessage 创建消息并序列化载荷
func NewMessage(id, msgType, jobID, deckID string, payload interface{}) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        id,
		Type:      msgType,
		JobID:     jobID,
		DeckID:    deckID,
		Payload:   raw,
		Metadata:  make(map[string]string),
		CreatedAt: time.Now(),
	}, nil
}

// SetMetadata 写入一项元数据
func (m *Message) SetMetadata(key, value string) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = value
}

// GetMetadata 读取元数据，键不存在时返回空串
func (m *Message) GetMetadata(key string) string {
	return m.Metadata[key]
}

// UnmarshalPayload 把载荷解析到目标结构
func (m *Message) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}

// DeckGenJobMessage 演示文稿生成任务的载荷
type DeckGenJobMessage struct {
	JobID         string `json:"job_id"`
	DeckID        string `json:"deck_id"`
	Topic         string `json:"topic"`
	TemplateID    string `json:"template_id"`
	ChartsEnabled bool   `json:"charts_enabled"`
}

// BackoffConfig 失败重投的指数退避参数
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// DefaultBackoffConfig 默认退避参数
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial:    time.Second,
		Max:        time.Minute,
		Multiplier: 2,
	}
}

// CalculateBackoff 按重试次数计算退避时长，封顶在 Max
func (c BackoffConfig) CalculateBackoff(retryCount int) time.Duration {
	wait := c.Initial
	for i := 0; i < retryCount && wait < c.Max; i++ {
		wait = time.Duration(float64(wait) * c.Multiplier)
	}
	if wait > c.Max {
		wait = c.Max
	}
	return wait
}
