package deck

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"neura-deck-api/internal/domain/entity"
	"neura-deck-api/internal/domain/repository"
	"neura-deck-api/internal/infrastructure/messaging"
	"neura-deck-api/internal/infrastructure/persistence/redis"
	apperr "neura-deck-api/pkg/errors"
	"neura-deck-api/pkg/logger"
)

// defaultCacheTTL 完成演示文稿的缓存时长
const defaultCacheTTL = time.Hour

// JobPublisher 任务投递接口
type JobPublisher interface {
	PublishDeckGenJob(ctx context.Context, job *messaging.DeckGenJobMessage) (string, error)
}

// DeckCache 演示文稿读写缓存接口
type DeckCache interface {
	GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CreateDeckRequest 创建演示文稿的入参
type CreateDeckRequest struct {
	Topic      string
	TemplateID string
	Charts     bool
}

// jobInputParams 落库的任务入参快照
type jobInputParams struct {
	Topic      string `json:"topic"`
	TemplateID string `json:"template_id"`
	Charts     bool   `json:"charts"`
}

// Service 演示文稿应用服务
// 负责受理生成请求、投递后台任务以及对外查询。
type Service struct {
	decks     repository.DeckRepository
	jobs      repository.JobRepository
	cache     DeckCache
	publisher JobPublisher
	cacheTTL  time.Duration
}

// NewService 创建演示文稿应用服务
func NewService(decks repository.DeckRepository, jobs repository.JobRepository, cache DeckCache, publisher JobPublisher) *Service {
	return &Service{
		decks:     decks,
		jobs:      jobs,
		cache:     cache,
		publisher: publisher,
		cacheTTL:  defaultCacheTTL,
	}
}

// CreateDeckJob 受理生成请求：建任务、投队列，立即返回任务句柄
func (s *Service) CreateDeckJob(ctx context.Context, req CreateDeckRequest) (*entity.GenerationJob, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, apperr.New(apperr.CodeInvalidParam, "主题不能为空")
	}
	templateID := NormalizeTemplateID(req.TemplateID)

	deckID := uuid.NewString()
	jobID := uuid.NewString()

	params, err := json.Marshal(jobInputParams{Topic: topic, TemplateID: templateID, Charts: req.Charts})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternalError, "任务入参序列化失败")
	}

	job := entity.NewGenerationJob(jobID, deckID, entity.JobTypeDeckGen, params)
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "创建任务失败")
	}

	if _, err := s.publisher.PublishDeckGenJob(ctx, &messaging.DeckGenJobMessage{
		JobID:         jobID,
		DeckID:        deckID,
		Topic:         topic,
		TemplateID:    templateID,
		ChartsEnabled: req.Charts,
	}); err != nil {
		// 任务无法进入队列时直接置为失败，避免前端无限轮询
		if setErr := s.jobs.SetResult(ctx, jobID, nil, "任务投递失败"); setErr != nil {
			logger.FromContext(ctx).Error("标记任务失败时出错", "job_id", jobID, "error", setErr)
		}
		return nil, apperr.Wrap(err, apperr.CodeQueueError, "任务投递失败")
	}

	logger.FromContext(ctx).Info("生成任务已受理",
		"job_id", jobID, "deck_id", deckID, "template_id", templateID)
	return job, nil
}

// GetJob 查询任务状态
func (s *Service) GetJob(ctx context.Context, jobID string) (*entity.GenerationJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "查询任务失败")
	}
	if job == nil {
		return nil, apperr.New(apperr.CodeJobNotFound, "任务不存在")
	}
	return job, nil
}

// GetDeck 查询已完成的演示文稿，优先走读穿缓存
func (s *Service) GetDeck(ctx context.Context, deckID string) (*entity.Deck, error) {
	if s.cache == nil {
		return s.loadDeck(ctx, deckID)
	}

	bytes, err := s.cache.GetOrLoadSafe(ctx, redis.BuildDeckKey(deckID), s.cacheTTL, func() (interface{}, error) {
		return s.loadDeck(ctx, deckID)
	})
	if err != nil {
		return nil, err
	}

	var deck entity.Deck
	if err := json.Unmarshal(bytes, &deck); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeCacheError, "演示文稿缓存数据损坏")
	}
	return &deck, nil
}

func (s *Service) loadDeck(ctx context.Context, deckID string) (*entity.Deck, error) {
	deck, err := s.decks.GetByID(ctx, deckID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "查询演示文稿失败")
	}
	if deck == nil {
		return nil, apperr.New(apperr.CodeDeckNotFound, "演示文稿不存在")
	}
	return deck, nil
}

// DeleteDeck 删除演示文稿并使缓存失效
func (s *Service) DeleteDeck(ctx context.Context, deckID string) error {
	deck, err := s.loadDeck(ctx, deckID)
	if err != nil {
		return err
	}
	if err := s.decks.Delete(ctx, deck.ID); err != nil {
		return apperr.Wrap(err, apperr.CodeDatabaseError, "删除演示文稿失败")
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, redis.BuildDeckKey(deck.ID)); err != nil {
			logger.FromContext(ctx).Warn("演示文稿缓存失效失败", "deck_id", deck.ID, "error", err)
		}
	}
	return nil
}

// ListDecks 分页查询演示文稿
func (s *Service) ListDecks(ctx context.Context, filter *repository.DeckFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Deck], error) {
	result, err := s.decks.List(ctx, filter, pagination)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "查询演示文稿列表失败")
	}
	return result, nil
}

// GetJobStats 查询任务统计
func (s *Service) GetJobStats(ctx context.Context) (*repository.JobStats, error) {
	stats, err := s.jobs.GetJobStats(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDatabaseError, "查询任务统计失败")
	}
	return stats, nil
}

// ExportDeckHTML 将已完成演示文稿导出为独立 HTML 页面
func (s *Service) ExportDeckHTML(ctx context.Context, deckID string) ([]byte, error) {
	deck, err := s.GetDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	return RenderHTML(deck)
}
