package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"neura-deck-api/internal/config"
	"neura-deck-api/internal/workflow/chain"
	wfmodel "neura-deck-api/internal/workflow/model"
	"neura-deck-api/pkg/logger"
	"neura-deck-api/pkg/metrics"
)

var tracer = otel.Tracer("llm")

// Usage 最近一次成功调用的用量信息
type Usage struct {
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// FallbackGateway 多提供商降级网关
// 按 fallback_chain 顺序尝试各提供商，第一个成功即返回；
// 全部失败返回聚合错误。实现大纲生成所需的文本网关接口。
type FallbackGateway struct {
	factory   *EinoFactory
	outline   *chain.OutlineChain
	providers []string
}

// NewFallbackGateway 创建降级网关
func NewFallbackGateway(factory *EinoFactory, cfg *config.LLMConfig) *FallbackGateway {
	providers := cfg.FallbackChain
	if len(providers) == 0 {
		providers = []string{cfg.DefaultProvider}
	}
	return &FallbackGateway{
		factory:   factory,
		outline:   chain.NewOutlineChain(factory),
		providers: providers,
	}
}

// GenerateText 按降级链生成文本
func (g *FallbackGateway) GenerateText(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	text, _, err := g.GenerateTextWithUsage(ctx, prompt, temperature, maxTokens)
	return text, err
}

// GenerateTextWithUsage 按降级链生成文本并返回用量
func (g *FallbackGateway) GenerateTextWithUsage(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, *Usage, error) {
	ctx, span := tracer.Start(ctx, "llm.GenerateText",
		trace.WithAttributes(
			attribute.Int("llm.max_tokens", maxTokens),
			attribute.Float64("llm.temperature", float64(temperature)),
		))
	defer span.End()

	log := logger.FromContext(ctx)
	var lastErr error

	for _, provider := range g.providers {
		modelName := g.factory.ModelName(provider)

		start := time.Now()
		resp, err := g.outline.Invoke(ctx, &wfmodel.OutlineGenerateInput{
			Prompt:      prompt,
			Provider:    provider,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
		})
		metrics.LLMCallDuration.WithLabelValues(provider, modelName).Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.LLMCallTotal.WithLabelValues(provider, modelName, "error").Inc()
			span.RecordError(err)
			log.Warn("提供商调用失败，尝试下一个", "provider", provider, "error", err)
			lastErr = err
			// 上下文已取消时无须再试后续提供商
			if ctx.Err() != nil {
				return "", nil, ctx.Err()
			}
			continue
		}

		content := strings.TrimSpace(resp.Content)
		if content == "" {
			metrics.LLMCallTotal.WithLabelValues(provider, modelName, "empty").Inc()
			lastErr = fmt.Errorf("provider %s returned empty response", provider)
			log.Warn("提供商返回空文本，尝试下一个", "provider", provider)
			continue
		}

		metrics.LLMCallTotal.WithLabelValues(provider, modelName, "ok").Inc()
		usage := &Usage{Provider: provider, Model: modelName}
		if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
			usage.PromptTokens = resp.ResponseMeta.Usage.PromptTokens
			usage.CompletionTokens = resp.ResponseMeta.Usage.CompletionTokens
			metrics.LLMTokensUsed.WithLabelValues(provider, modelName, "prompt").Add(float64(usage.PromptTokens))
			metrics.LLMTokensUsed.WithLabelValues(provider, modelName, "completion").Add(float64(usage.CompletionTokens))
		}

		span.SetAttributes(attribute.String("llm.provider", provider))
		return content, usage, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no llm providers configured")
	}
	return "", nil, fmt.Errorf("all llm providers failed: %w", lastErr)
}
