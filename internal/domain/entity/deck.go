// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// SlideTypeSectionDivider 章节分隔页类型标记
// 分隔页只携带一行摘要，不受要点条数规则约束。
const SlideTypeSectionDivider = "section_divider"

// OutlineSource 大纲来源标记
type OutlineSource string

const (
	// OutlineSourceModel 模型一次生成且解析成功
	OutlineSourceModel OutlineSource = "model"
	// OutlineSourceRepaired 模型输出截断后经修复挽回
	OutlineSourceRepaired OutlineSource = "repaired"
	// OutlineSourceFallback 生成与修复全部失败后的固定兜底大纲
	OutlineSourceFallback OutlineSource = "fallback"
)

// SlideRecord 单页幻灯片记录
// Content 在后处理完成后始终为有序的要点序列。
type SlideRecord struct {
	SlideNumber int      `json:"slide_number"`
	Title       string   `json:"title"`
	Content     []string `json:"content"`
	Type        string   `json:"type,omitempty"`
}

// IsSectionDivider 判断是否章节分隔页
func (s SlideRecord) IsSectionDivider() bool {
	return s.Type == SlideTypeSectionDivider
}

// Outline 一次生成请求产出的完整幻灯片序列
// TotalSlides 必须始终等于 len(Slides)，Slides 变更后需重算。
type Outline struct {
	Slides      []SlideRecord `json:"slides"`
	TotalSlides int           `json:"total_slides"`
	UserPrompt  string        `json:"user_prompt"`
	TemplateID  string        `json:"template_id"`
	Source      OutlineSource `json:"source"`
}

// SlideTitles 收集全部幻灯片标题（用于检索列）
func (o *Outline) SlideTitles() []string {
	titles := make([]string, 0, len(o.Slides))
	for _, s := range o.Slides {
		titles = append(titles, s.Title)
	}
	return titles
}

// Deck 持久化的演示文稿
type Deck struct {
	ID          string         `json:"id" gorm:"primaryKey;type:uuid"`
	Topic       string         `json:"topic"`
	TemplateID  string         `json:"template_id"`
	Source      OutlineSource  `json:"source"`
	SlideCount  int            `json:"slide_count"`
	SlideTitles pq.StringArray `json:"slide_titles" gorm:"type:text[]"`
	Outline     json.RawMessage `json:"outline" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName 指定表名
func (Deck) TableName() string {
	return "decks"
}
