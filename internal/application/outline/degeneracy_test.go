package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func substantiveSlide(n int, title string) Slide {
	return Slide{
		SlideNumber: n,
		Title:       title,
		Content:     "• Shipments reached 4.2M units in 2025.\n• Average selling price rose 9% to $310.",
	}
}

func placeholderSlideFor(n int) Slide {
	return Slide{SlideNumber: n, Title: "Topic Area", Content: "Key Point 1"}
}

func TestDetectorMajorityRule(t *testing.T) {
	d := NewDetector(60, 0.5)

	// 四页中两页占位：恰为一半，不超过阈值
	half := []Slide{
		substantiveSlide(1, "Shipments"),
		placeholderSlideFor(2),
		substantiveSlide(3, "Pricing"),
		placeholderSlideFor(4),
	}
	assert.False(t, d.IsDegenerate(half))

	// 四页中三页占位：过半，判定退化
	majority := []Slide{
		substantiveSlide(1, "Shipments"),
		placeholderSlideFor(2),
		placeholderSlideFor(3),
		placeholderSlideFor(4),
	}
	assert.True(t, d.IsDegenerate(majority))
}

func TestDetectorShortNumberlessContent(t *testing.T) {
	d := NewDetector(60, 0.5)

	// 不含占位短语但过短且无数字，仍计为占位
	slides := []Slide{
		{SlideNumber: 1, Title: "Intro", Content: "A few words."},
		{SlideNumber: 2, Title: "More", Content: "Nothing concrete."},
	}
	assert.True(t, d.IsDegenerate(slides))

	// 同样长度但含数字则不算占位
	withDigits := []Slide{
		{SlideNumber: 1, Title: "Intro", Content: "Grew 40% in 2025."},
		{SlideNumber: 2, Title: "More", Content: "Added 12 regions."},
	}
	assert.False(t, d.IsDegenerate(withDigits))
}

func TestDetectorShortCheckCountsRunes(t *testing.T) {
	d := NewDetector(60, 0.5)

	// 中文内容不足 60 字符但字节数超过阈值，仍应计为占位
	slides := []Slide{
		{SlideNumber: 1, Title: "市场概览", Content: "这里是一些还没有具体数据支撑的介绍性文字"},
		{SlideNumber: 2, Title: "发展前景", Content: "后续补充行业趋势与相关政策的简单说明"},
	}
	assert.True(t, d.IsDegenerate(slides))

	// 含数字的短中文内容不算占位
	withDigits := []Slide{
		{SlideNumber: 1, Title: "市场概览", Content: "2025 年出货量达到 420 万台"},
		{SlideNumber: 2, Title: "价格走势", Content: "均价上涨 9% 至 310 美元"},
	}
	assert.False(t, d.IsDegenerate(withDigits))
}

func TestDetectorSkipsSectionDividers(t *testing.T) {
	d := NewDetector(60, 0.5)

	// 分隔页不计入内容页，仅剩一页内容页时不做判定
	slides := []Slide{
		{SlideNumber: 1, Title: "Part One", Content: "Short.", Type: "section_divider"},
		{SlideNumber: 2, Title: "Part Two", Content: "Short.", Type: "section_divider"},
		placeholderSlideFor(3),
	}
	assert.False(t, d.IsDegenerate(slides))
}

func TestDetectorTooFewSlides(t *testing.T) {
	d := NewDetector(60, 0.5)
	assert.False(t, d.IsDegenerate(nil))
	assert.False(t, d.IsDegenerate([]Slide{placeholderSlideFor(1)}))
}

func TestTopicLooksLikeBusiness(t *testing.T) {
	assert.True(t, TopicLooksLikeBusiness("Acme Corp investor pitch deck"))
	assert.True(t, TopicLooksLikeBusiness("SaaS pricing strategy"))
	assert.False(t, TopicLooksLikeBusiness("History of honeybees"))
	assert.False(t, TopicLooksLikeBusiness(""))
}

func TestHasGenericBusinessTitles(t *testing.T) {
	slides := []Slide{
		substantiveSlide(1, "History of honeybees"),
		substantiveSlide(2, "Market Context: honeybees"),
	}

	// 非商业主题套用商业标题
	assert.True(t, HasGenericBusinessTitles(slides, "History of honeybees"))

	// 商业主题下同样的标题是正常的
	assert.False(t, HasGenericBusinessTitles(slides, "Honeybee farming startup"))
}
