// Package outline 实现大纲解析、修复与归一化流水线
//
// 模型返回的自由文本经过：切片取出结构化负载 -> 严格解析（失败则文本级修正后重试）
// -> 截断修复级联 -> 退化检测（最多一次更严格重试）-> 归一化。任何失败路径最终都
// 落到固定兜底大纲，不向调用方抛错。
package outline

import "strings"

// Slide 解析与修复阶段的统一幻灯片形态
// Content 在此阶段始终为扁平字符串，要点之间以换行分隔；
// 最终由 Generator 还原为要点序列。
type Slide struct {
	SlideNumber int    `json:"slide_number"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Type        string `json:"type,omitempty"`
}

// IsSectionDivider 是否为章节分隔页（不计入内容页）
func (s Slide) IsSectionDivider() bool {
	return strings.EqualFold(strings.TrimSpace(s.Type), "section_divider")
}

// 解析阶段的内容约束
const (
	// maxContentRunes 单页内容字符上限，超出部分截断并追加省略标记
	maxContentRunes = 500
	// maxBulletsPerSlide 列表形态内容展平时保留的最大要点数
	maxBulletsPerSlide = 5
	// maxBulletRunes 单条要点字符上限（无法按要点切分时整体截断）
	maxBulletRunes = 200
	// maxTitleRunes 首末页标题展示长度上限
	maxTitleRunes = 80
)

// closingTitle 末页不满足收尾关键词时强制改写的标题
const closingTitle = "Summary & Next Steps"

// closingKeywords 末页标题需包含的收尾关键词（大小写不敏感子串匹配）
var closingKeywords = []string{"thank", "key takeaway", "summary"}
