package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	wfmodel "neura-deck-api/internal/workflow/model"
	workflowport "neura-deck-api/internal/workflow/port"
)

// OutlineChain 大纲生成链：单轮用户消息 + 采样参数，返回模型原始输出。
type OutlineChain struct {
	factory workflowport.ChatModelFactory
}

func NewOutlineChain(factory workflowport.ChatModelFactory) *OutlineChain {
	return &OutlineChain{factory: factory}
}

func (c *OutlineChain) Invoke(ctx context.Context, in *wfmodel.OutlineGenerateInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.Provider) == "" {
		return nil, fmt.Errorf("provider is required")
	}
	if strings.TrimSpace(in.Prompt) == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	chatModel, err := c.factory.Get(ctx, strings.TrimSpace(in.Provider))
	if err != nil {
		return nil, err
	}

	msgs := []*schema.Message{schema.UserMessage(in.Prompt)}
	outMsg, err := chatModel.Generate(ctx, msgs, buildOutlineModelOptions(in)...)
	if err != nil {
		return nil, err
	}
	if outMsg == nil {
		return nil, fmt.Errorf("empty llm response")
	}
	return outMsg, nil
}

func buildOutlineModelOptions(in *wfmodel.OutlineGenerateInput) []model.Option {
	opts := make([]model.Option, 0, 3)
	if in == nil {
		return opts
	}
	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if strings.TrimSpace(in.Model) != "" {
		opts = append(opts, model.WithModel(strings.TrimSpace(in.Model)))
	}
	return opts
}
