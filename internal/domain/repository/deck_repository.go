// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"neura-deck-api/internal/domain/entity"
)

// DeckFilter 演示文稿过滤条件
type DeckFilter struct {
	TemplateID string
	Source     entity.OutlineSource
	TitleTerm  string // 匹配任意幻灯片标题的子串
}

// DeckRepository 演示文稿仓储接口
type DeckRepository interface {
	// Create 创建演示文稿
	Create(ctx context.Context, deck *entity.Deck) error

	// GetByID 根据 ID 获取演示文稿
	GetByID(ctx context.Context, id string) (*entity.Deck, error)

	// Update 更新演示文稿
	Update(ctx context.Context, deck *entity.Deck) error

	// Delete 删除演示文稿
	Delete(ctx context.Context, id string) error

	// List 获取演示文稿列表
	List(ctx context.Context, filter *DeckFilter, pagination Pagination) (*PagedResult[*entity.Deck], error)
}
