// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"neura-deck-api/internal/domain/entity"
	"neura-deck-api/internal/domain/repository"
)

// DeckRepository 演示文稿仓储实现
type DeckRepository struct {
	client *Client
}

// NewDeckRepository 创建演示文稿仓储
func NewDeckRepository(client *Client) *DeckRepository {
	return &DeckRepository{client: client}
}

// Create 创建演示文稿
func (r *DeckRepository) Create(ctx context.Context, deck *entity.Deck) error {
	ctx, span := tracer.Start(ctx, "postgres.DeckRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(deck).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create deck: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取演示文稿
func (r *DeckRepository) GetByID(ctx context.Context, id string) (*entity.Deck, error) {
	ctx, span := tracer.Start(ctx, "postgres.DeckRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var deck entity.Deck
	if err := db.First(&deck, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}
	return &deck, nil
}

// Update 更新演示文稿
func (r *DeckRepository) Update(ctx context.Context, deck *entity.Deck) error {
	ctx, span := tracer.Start(ctx, "postgres.DeckRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(deck).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update deck: %w", err)
	}
	return nil
}

// Delete 删除演示文稿
func (r *DeckRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.DeckRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Deck{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete deck: %w", err)
	}
	return nil
}

// List 获取演示文稿列表
func (r *DeckRepository) List(ctx context.Context, filter *repository.DeckFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Deck], error) {
	ctx, span := tracer.Start(ctx, "postgres.DeckRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Deck{})

	// 应用过滤条件
	if filter != nil {
		if filter.TemplateID != "" {
			query = query.Where("template_id = ?", filter.TemplateID)
		}
		if filter.Source != "" {
			query = query.Where("source = ?", filter.Source)
		}
		if filter.TitleTerm != "" {
			// slide_titles 为 text[] 列，按任意元素子串匹配
			query = query.Where(
				"EXISTS (SELECT 1 FROM unnest(slide_titles) AS t WHERE t ILIKE ?)",
				"%"+filter.TitleTerm+"%",
			)
		}
	}

	// 获取总数
	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count decks: %w", err)
	}

	// 获取列表
	var decks []*entity.Deck
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&decks).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}

	return repository.NewPagedResult(decks, total, pagination), nil
}
