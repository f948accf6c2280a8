package deck

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/lib/pq"

	"neura-deck-api/internal/application/outline"
	"neura-deck-api/internal/domain/entity"
	"neura-deck-api/internal/domain/repository"
	"neura-deck-api/internal/infrastructure/llm"
	"neura-deck-api/internal/infrastructure/messaging"
	"neura-deck-api/internal/infrastructure/persistence/redis"
	"neura-deck-api/internal/infrastructure/research"
	apperr "neura-deck-api/pkg/errors"
	"neura-deck-api/pkg/logger"
	"neura-deck-api/pkg/metrics"
)

// maxInjectedBullets 注入单页幻灯片的调研条目上限
const maxInjectedBullets = 5

// ResearchGatherer 网络调研接口
type ResearchGatherer interface {
	Gather(ctx context.Context, topic string) research.Result
}

// UsageGateway 带用量回报的文本生成接口
type UsageGateway interface {
	GenerateTextWithUsage(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, *llm.Usage, error)
}

// usageRecorder 聚合一次任务内全部 LLM 调用的用量
// 实现 outline.TextGateway，按消息粒度创建，不做并发保护。
type usageRecorder struct {
	gateway          UsageGateway
	provider         string
	model            string
	promptTokens     int
	completionTokens int
}

func (r *usageRecorder) GenerateText(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	text, usage, err := r.gateway.GenerateTextWithUsage(ctx, prompt, temperature, maxTokens)
	if usage != nil {
		r.provider = usage.Provider
		r.model = usage.Model
		r.promptTokens += usage.PromptTokens
		r.completionTokens += usage.CompletionTokens
	}
	return text, err
}

// Worker 演示文稿生成流水线
// 消费 stream:deck:gen 的任务消息：检索 → 生成大纲 → 注入调研要点 →
// 落库并写缓存。大纲生成自身永不失败（内部兜底），失败只来自基础设施。
type Worker struct {
	decks      repository.DeckRepository
	jobs       repository.JobRepository
	tx         repository.Transactor
	gatherer   ResearchGatherer
	gateway    UsageGateway
	cache      DeckCache
	outlineCfg outline.Config
	cacheTTL   time.Duration
}

// NewWorker 创建演示文稿生成流水线
// tx 为空时演示文稿落库与任务完结各自提交。
func NewWorker(decks repository.DeckRepository, jobs repository.JobRepository, tx repository.Transactor, gatherer ResearchGatherer, gateway UsageGateway, cache DeckCache, outlineCfg outline.Config) *Worker {
	return &Worker{
		decks:      decks,
		jobs:       jobs,
		tx:         tx,
		gatherer:   gatherer,
		gateway:    gateway,
		cache:      cache,
		outlineCfg: outlineCfg,
		cacheTTL:   defaultCacheTTL,
	}
}

// HandleMessage 处理一条演示文稿生成消息
func (w *Worker) HandleMessage(ctx context.Context, msg *messaging.Message) error {
	var payload messaging.DeckGenJobMessage
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return apperr.Wrap(err, apperr.CodeInvalidParam, "任务消息载荷无法解析")
	}

	log := logger.FromContext(ctx)
	templateID := NormalizeTemplateID(payload.TemplateID)
	start := time.Now()

	metrics.ActiveGenerations.Inc()
	defer metrics.ActiveGenerations.Dec()

	if err := w.jobs.MarkRunning(ctx, payload.JobID); err != nil {
		return apperr.Wrap(err, apperr.CodeDatabaseError, "标记任务运行失败")
	}

	w.updateProgress(ctx, payload.JobID, 10, "Gathering web research...")
	result := w.gatherer.Gather(ctx, payload.Topic)
	w.updateProgress(ctx, payload.JobID, 20, "Research gathered, generating outline...")

	recorder := &usageRecorder{gateway: w.gateway}
	generator := outline.NewGenerator(recorder, w.outlineCfg)
	o := generator.Generate(ctx, outline.Request{
		Topic:         payload.Topic,
		TemplateID:    templateID,
		Research:      result.Text,
		ChartsEnabled: payload.ChartsEnabled,
	})
	// 上下文取消时不落兜底结果，交给队列重投
	if ctx.Err() != nil {
		return ctx.Err()
	}

	w.updateProgress(ctx, payload.JobID, 70, "Outline ready, assembling deck...")
	injectBullets(o, "Market Context", result.MarketBullets)
	injectBullets(o, "Success Stories", result.SuccessBullets)

	outlineJSON, err := json.Marshal(o)
	if err != nil {
		w.failJob(ctx, payload.JobID, templateID, "大纲序列化失败")
		return apperr.Wrap(err, apperr.CodeInternalError, "大纲序列化失败")
	}

	deck := &entity.Deck{
		ID:          payload.DeckID,
		Topic:       payload.Topic,
		TemplateID:  templateID,
		Source:      o.Source,
		SlideCount:  o.TotalSlides,
		SlideTitles: pq.StringArray(o.SlideTitles()),
		Outline:     outlineJSON,
	}
	w.recordLLMUsage(ctx, payload.JobID, recorder)

	jobResult, err := json.Marshal(map[string]interface{}{
		"deck_id":     deck.ID,
		"slide_count": deck.SlideCount,
		"source":      deck.Source,
	})
	if err != nil {
		w.failJob(ctx, payload.JobID, templateID, "任务结果序列化失败")
		return apperr.Wrap(err, apperr.CodeInternalError, "任务结果序列化失败")
	}

	// 演示文稿落库与任务完结同一事务提交
	persist := func(txCtx context.Context) error {
		if err := w.decks.Create(txCtx, deck); err != nil {
			return err
		}
		return w.jobs.SetResult(txCtx, payload.JobID, jobResult, "")
	}
	if w.tx != nil {
		err = w.tx.WithTransaction(ctx, persist)
	} else {
		err = persist(ctx)
	}
	if err != nil {
		w.failJob(ctx, payload.JobID, templateID, "演示文稿落库失败")
		return apperr.Wrap(err, apperr.CodeDatabaseError, "演示文稿落库失败")
	}

	if w.cache != nil {
		if err := w.cache.Set(ctx, redis.BuildDeckKey(deck.ID), deck, w.cacheTTL); err != nil {
			log.Warn("演示文稿写缓存失败", "deck_id", deck.ID, "error", err)
		}
	}

	metrics.DeckGenerationTotal.WithLabelValues(templateID, "ok").Inc()
	metrics.DeckGenerationDuration.WithLabelValues(templateID).Observe(time.Since(start).Seconds())
	metrics.DeckSlideCount.WithLabelValues(templateID).Observe(float64(deck.SlideCount))

	log.Info("演示文稿生成完成",
		"deck_id", deck.ID,
		"slide_count", deck.SlideCount,
		"source", deck.Source,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// updateProgress 推进任务进度，失败只记日志不阻断流水线
func (w *Worker) updateProgress(ctx context.Context, jobID string, progress int, message string) {
	if err := w.jobs.UpdateProgress(ctx, jobID, progress, message); err != nil {
		logger.FromContext(ctx).Warn("更新任务进度失败", "job_id", jobID, "error", err)
	}
}

// failJob 将任务置为失败并计数
func (w *Worker) failJob(ctx context.Context, jobID, templateID, errMsg string) {
	if err := w.jobs.SetResult(ctx, jobID, nil, errMsg); err != nil {
		logger.FromContext(ctx).Error("标记任务失败时出错", "job_id", jobID, "error", err)
	}
	metrics.DeckGenerationTotal.WithLabelValues(templateID, "failed").Inc()
}

// recordLLMUsage 回写任务的 LLM 用量字段，尽力而为
func (w *Worker) recordLLMUsage(ctx context.Context, jobID string, recorder *usageRecorder) {
	if recorder.provider == "" && recorder.promptTokens == 0 && recorder.completionTokens == 0 {
		return
	}
	job, err := w.jobs.GetByID(ctx, jobID)
	if err != nil || job == nil {
		return
	}
	job.SetLLMMetrics(recorder.provider, recorder.model, recorder.promptTokens, recorder.completionTokens)
	if err := w.jobs.Update(ctx, job); err != nil {
		logger.FromContext(ctx).Warn("回写任务用量失败", "job_id", jobID, "error", err)
	}
}

// injectBullets 将调研条目写入标题匹配的幻灯片
// 标题按去空白小写比较，允许带冒号后缀的扩写标题。
func injectBullets(o *entity.Outline, title string, bullets []string) {
	cleaned := make([]string, 0, maxInjectedBullets)
	for _, b := range bullets {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		cleaned = append(cleaned, b)
		if len(cleaned) == maxInjectedBullets {
			break
		}
	}
	if len(cleaned) == 0 {
		return
	}

	want := strings.ToLower(strings.TrimSpace(title))
	for i := range o.Slides {
		got := strings.ToLower(strings.TrimSpace(o.Slides[i].Title))
		if got == want || strings.HasPrefix(got, want+":") {
			o.Slides[i].Content = cleaned
			return
		}
	}
}
