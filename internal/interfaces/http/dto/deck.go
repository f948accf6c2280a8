package dto

import (
	"encoding/json"
	"time"

	"neura-deck-api/internal/domain/entity"
)

// CreateDeckRequest 创建演示文稿请求
type CreateDeckRequest struct {
	Prompt     string `json:"prompt" binding:"required"`
	TemplateID string `json:"template_id"`
	Charts     *bool  `json:"charts"`
}

// ChartsEnabled 图表开关，缺省开启
func (r *CreateDeckRequest) ChartsEnabled() bool {
	if r.Charts == nil {
		return true
	}
	return *r.Charts
}

// CreateDeckResponse 创建演示文稿响应
type CreateDeckResponse struct {
	JobID  string `json:"job_id"`
	DeckID string `json:"deck_id"`
}

// DeckResponse 演示文稿响应
type DeckResponse struct {
	ID          string          `json:"id"`
	Topic       string          `json:"topic"`
	TemplateID  string          `json:"template_id"`
	Source      string          `json:"source"`
	SlideCount  int             `json:"slide_count"`
	SlideTitles []string        `json:"slide_titles"`
	Outline     json.RawMessage `json:"outline,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DeckListResponse 演示文稿列表响应
type DeckListResponse struct {
	Decks []*DeckResponse `json:"decks"`
}

// ToDeckResponse 将领域实体转换为响应 DTO
func ToDeckResponse(d *entity.Deck) *DeckResponse {
	if d == nil {
		return nil
	}
	return &DeckResponse{
		ID:          d.ID,
		Topic:       d.Topic,
		TemplateID:  d.TemplateID,
		Source:      string(d.Source),
		SlideCount:  d.SlideCount,
		SlideTitles: []string(d.SlideTitles),
		Outline:     d.Outline,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// ToDeckListItem 列表项不携带完整大纲，减小响应体积
func ToDeckListItem(d *entity.Deck) *DeckResponse {
	resp := ToDeckResponse(d)
	if resp != nil {
		resp.Outline = nil
	}
	return resp
}
