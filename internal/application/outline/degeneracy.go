package outline

import (
	"strings"
	"unicode/utf8"
)

// placeholderPhrases 占位内容特征短语，命中即视为无效内容
var placeholderPhrases = []string{
	"content.", "key point", "overview of", "to be filled", "to be researched",
	"details for this section", "bullet", "point one", "point two", "slide 1", "slide 2",
	"summary and next steps", "key points to be researched", "tbd", "n/a",
}

// genericBusinessTerms 泛商业模板标题特征，出现在非商业主题中说明模型在套模板
var genericBusinessTerms = []string{
	"company introduction", "market context", "products & services", "financial overview",
	"competitive landscape", "growth strategy", "partnerships", "market share",
	"revenue", "funnel", "company ", "business model", "investment opportunity",
	"contact information", "customer testimonials", "team overview", "technology stack",
	"future roadmap", "success stories", "market analysis",
}

// businessTopicHints 主题中出现这些词时，允许大纲使用商业类标题
var businessTopicHints = []string{
	"company", "corp", "startup", "business", "investor", "pitch", "revenue",
	"vc", "funding", "b2b", "b2c", "saas", "enterprise", "inc", "ltd",
}

// Detector 大纲退化检测器
// 依据占位短语与「过短且无数字」两条规则逐页打分，
// 超过半数内容页命中即判定整份大纲退化。
type Detector struct {
	minChars int
	ratio    float64
}

// NewDetector 创建检测器，非法参数回落到默认阈值
func NewDetector(minChars int, ratio float64) *Detector {
	if minChars <= 0 {
		minChars = 60
	}
	if ratio <= 0 || ratio > 1 {
		ratio = 0.5
	}
	return &Detector{minChars: minChars, ratio: ratio}
}

// IsDegenerate 判定大纲是否以占位内容为主
// 少于两页内容页时不做判定，避免对短大纲误杀。
func (d *Detector) IsDegenerate(slides []Slide) bool {
	if len(slides) < 2 {
		return false
	}
	placeholderCount := 0
	contentCount := 0
	for _, s := range slides {
		if s.IsSectionDivider() {
			continue
		}
		contentCount++
		combined := strings.TrimSpace(strings.ToLower(strings.TrimSpace(s.Title)) + " " + strings.ToLower(strings.TrimSpace(s.Content)))
		if d.isPlaceholder(combined) {
			placeholderCount++
		}
	}
	if contentCount < 2 {
		return false
	}
	return float64(placeholderCount) > float64(contentCount)*d.ratio
}

func (d *Detector) isPlaceholder(combined string) bool {
	for _, p := range placeholderPhrases {
		if strings.Contains(combined, p) {
			return true
		}
	}
	// 按字符数而非字节数衡量，多字节文本不会虚高
	return utf8.RuneCountInString(combined) < d.minChars && !containsDigit(combined)
}

// TopicLooksLikeBusiness 主题是否带有商业语境
func TopicLooksLikeBusiness(topic string) bool {
	t := strings.ToLower(strings.TrimSpace(topic))
	for _, hint := range businessTopicHints {
		if strings.Contains(t, hint) {
			return true
		}
	}
	return false
}

// HasGenericBusinessTitles 非商业主题却套用泛商业标题时返回 true
// 属于参考性信号，调用方可按配置决定是否触发重试。
func HasGenericBusinessTitles(slides []Slide, topic string) bool {
	if TopicLooksLikeBusiness(topic) {
		return false
	}
	for _, s := range slides {
		title := strings.ToLower(strings.TrimSpace(s.Title))
		for _, term := range genericBusinessTerms {
			if strings.Contains(title, term) {
				return true
			}
		}
	}
	return false
}
