// Package llm 提供多提供商 LLM 接入与降级
package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"neura-deck-api/internal/config"
)

// EinoFactory 按提供商惰性构建并缓存 ChatModel 实例
// 各提供商（groq、cerebras、gemini）均通过 OpenAI 兼容端点接入。
type EinoFactory struct {
	cfg    *config.LLMConfig
	mu     sync.Mutex
	models map[string]model.BaseChatModel
}

// NewEinoFactory 创建 LLM 工厂
func NewEinoFactory(cfg *config.Config) *EinoFactory {
	return &EinoFactory{
		cfg:    &cfg.LLM,
		models: make(map[string]model.BaseChatModel),
	}
}

// Get 获取指定提供商的 ChatModel，name 为空取默认提供商
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	if name == "" {
		name = f.cfg.DefaultProvider
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if m, ok := f.models[name]; ok {
		return m, nil
	}

	m, err := f.build(ctx, name)
	if err != nil {
		return nil, err
	}
	f.models[name] = m
	return m, nil
}

// build 依据提供商配置构建客户端，持有锁时调用
func (f *EinoFactory) build(ctx context.Context, name string) (model.BaseChatModel, error) {
	providerCfg, ok := f.cfg.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in llm config", name)
	}

	temperature := float32(providerCfg.Temperature)
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      providerCfg.APIKey,
		BaseURL:     providerCfg.BaseURL,
		Model:       providerCfg.Model,
		MaxTokens:   &providerCfg.MaxTokens,
		Temperature: &temperature,
		Timeout:     providerCfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model for %s: %w", name, err)
	}
	return chatModel, nil
}

// ModelName 返回提供商配置的模型名（用于指标标签）
func (f *EinoFactory) ModelName(name string) string {
	if cfg, ok := f.cfg.Providers[name]; ok {
		return cfg.Model
	}
	return ""
}
