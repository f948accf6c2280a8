package outline

import (
	"context"
	"strings"

	"neura-deck-api/internal/domain/entity"
	"neura-deck-api/pkg/logger"
	"neura-deck-api/pkg/metrics"
)

// 生成调用参数
const (
	firstPassTemperature float32 = 0.2
	retryTemperature     float32 = 0.15
	generateMaxTokens            = 4000
)

// TextGateway 文本生成网关
// 实现方负责模型选择与降级，生成失败返回错误。
type TextGateway interface {
	GenerateText(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error)
}

// Config 生成器行为参数，零值字段取默认
type Config struct {
	PlaceholderMinChars int
	DegenerateRatio     float64
	EnforceTopicFit     bool
	MaxSlides           int
	MinSlides           int
	ChartsExtraSlides   int
}

func (c Config) withDefaults() Config {
	if c.PlaceholderMinChars <= 0 {
		c.PlaceholderMinChars = 60
	}
	if c.DegenerateRatio <= 0 {
		c.DegenerateRatio = 0.5
	}
	if c.MaxSlides <= 0 {
		c.MaxSlides = 19
	}
	if c.MinSlides <= 0 {
		c.MinSlides = 6
	}
	if c.ChartsExtraSlides <= 0 {
		c.ChartsExtraSlides = 4
	}
	return c
}

// Request 一次大纲生成请求
type Request struct {
	Topic         string
	TemplateID    string
	Research      string
	ChartsEnabled bool
}

// Generator 大纲生成编排器
// 串联提示词构造、网关调用、解析、修复、退化检测与归一化；
// 任何失败路径返回兜底大纲而非错误。
type Generator struct {
	gateway  TextGateway
	cfg      Config
	detector *Detector
}

// NewGenerator 创建生成器
func NewGenerator(gateway TextGateway, cfg Config) *Generator {
	cfg = cfg.withDefaults()
	return &Generator{
		gateway:  gateway,
		cfg:      cfg,
		detector: NewDetector(cfg.PlaceholderMinChars, cfg.DegenerateRatio),
	}
}

// Generate 生成一份完整大纲
// 返回值永不为 nil；Source 字段标记产出路径。
func (g *Generator) Generate(ctx context.Context, req Request) *entity.Outline {
	log := logger.FromContext(ctx)
	targets := ComputeTargets(req.TemplateID, req.ChartsEnabled, g.cfg.MinSlides, g.cfg.ChartsExtraSlides, g.cfg.MaxSlides)

	prompt := BuildPrompt(req.Research, req.Topic, targets, req.ChartsEnabled, false)
	raw, err := g.gateway.GenerateText(ctx, prompt, firstPassTemperature, generateMaxTokens)
	if err != nil {
		log.Warn("大纲生成网关调用失败，返回兜底大纲", "error", err, "template_id", req.TemplateID)
		metrics.OutlineFallbackTotal.WithLabelValues("gateway").Inc()
		return g.fallback(req, targets.Target)
	}

	slides, source := g.parseWithRepair(ctx, raw, targets.Target)
	if len(slides) == 0 {
		log.Warn("大纲解析与修复均失败，返回兜底大纲", "template_id", req.TemplateID)
		metrics.OutlineFallbackTotal.WithLabelValues("parse").Inc()
		return g.fallback(req, targets.Target)
	}

	if g.needsRetry(slides, req.Topic) {
		metrics.OutlineDegenerateTotal.Inc()
		log.Info("检测到退化大纲，触发一次严格重试", "slides", len(slides))
		if retried, ok := g.strictRetry(ctx, req, targets); ok {
			slides = retried
			source = entity.OutlineSourceModel
		}
	}

	slides = Normalize(slides, req.Topic, targets.Target)
	return g.toOutline(slides, req, source)
}

// parseWithRepair 切片后严格解析，失败则进入截断修复级联
func (g *Generator) parseWithRepair(ctx context.Context, raw string, target int) ([]Slide, entity.OutlineSource) {
	payload, ok := SlicePayload(raw)
	if !ok {
		metrics.OutlineParseTotal.WithLabelValues("malformed").Inc()
		return nil, entity.OutlineSourceFallback
	}

	if slides, ok := ParseSlides(payload); ok {
		metrics.OutlineParseTotal.WithLabelValues("ok").Inc()
		// 不在此处裁剪：退化判定要基于完整序列投票，裁剪交给归一化
		return slides, entity.OutlineSourceModel
	}
	metrics.OutlineParseTotal.WithLabelValues("malformed").Inc()

	slides, strategy := Repair(payload, target)
	if len(slides) > 0 {
		metrics.OutlineRepairTotal.WithLabelValues(strategy, "ok").Inc()
		logger.FromContext(ctx).Info("截断修复挽回大纲", "strategy", strategy, "slides", len(slides))
		return slides, entity.OutlineSourceRepaired
	}
	metrics.OutlineRepairTotal.WithLabelValues(strategy, "failed").Inc()
	return nil, entity.OutlineSourceFallback
}

// needsRetry 是否需要一次严格重试
// 退化判定始终生效；主题契合检查仅在配置开启时参与。
func (g *Generator) needsRetry(slides []Slide, topic string) bool {
	if g.detector.IsDegenerate(slides) {
		return true
	}
	return g.cfg.EnforceTopicFit && HasGenericBusinessTitles(slides, topic)
}

// strictRetry 以更低温度与反占位约束重试一次
// 重试结果必须解析成功且通过退化检测才会被采纳，否则保留原结果。
func (g *Generator) strictRetry(ctx context.Context, req Request, targets SlideTargets) ([]Slide, bool) {
	prompt := BuildPrompt(req.Research, req.Topic, targets, req.ChartsEnabled, true)
	raw, err := g.gateway.GenerateText(ctx, prompt, retryTemperature, generateMaxTokens)
	if err != nil {
		logger.FromContext(ctx).Warn("严格重试调用失败，保留原大纲", "error", err)
		return nil, false
	}
	payload, ok := SlicePayload(raw)
	if !ok {
		return nil, false
	}
	slides, ok := ParseSlides(payload)
	if !ok || len(slides) == 0 {
		return nil, false
	}
	if g.needsRetry(slides, req.Topic) {
		return nil, false
	}
	return slides, true
}

// fallback 构造兜底大纲产物
func (g *Generator) fallback(req Request, target int) *entity.Outline {
	return g.toOutline(FallbackSlides(req.Topic, target), req, entity.OutlineSourceFallback)
}

// toOutline 将中间幻灯片序列落为领域实体，内容还原为要点序列
func (g *Generator) toOutline(slides []Slide, req Request, source entity.OutlineSource) *entity.Outline {
	records := make([]entity.SlideRecord, 0, len(slides))
	for _, s := range slides {
		typ := ""
		if s.IsSectionDivider() {
			typ = entity.SlideTypeSectionDivider
		}
		records = append(records, entity.SlideRecord{
			SlideNumber: s.SlideNumber,
			Title:       strings.TrimSpace(s.Title),
			Content:     ExpandBullets(s.Content),
			Type:        typ,
		})
	}
	return &entity.Outline{
		Slides:      records,
		TotalSlides: len(records),
		UserPrompt:  req.Topic,
		TemplateID:  req.TemplateID,
		Source:      source,
	}
}
