package outline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTitleAndClosing(t *testing.T) {
	slides := []Slide{
		{SlideNumber: 3, Title: "Whatever the model said", Content: "• Subtitle."},
		{SlideNumber: 5, Title: "Deep Dive", Content: "• 40% YoY."},
		{SlideNumber: 9, Title: "Conclusion", Content: "• Wrap up."},
	}

	out := Normalize(slides, "Electric Vehicles in Europe", 19)
	require.Len(t, out, 3)

	// 首页标题替换为主题
	assert.Equal(t, "Electric Vehicles in Europe", out[0].Title)
	// 「Conclusion」不含收尾关键词，被强制改写
	assert.Equal(t, "Summary & Next Steps", out[2].Title)
	// 全量重新编号
	for i, s := range out {
		assert.Equal(t, i+1, s.SlideNumber)
	}
	// 输入切片不被修改
	assert.Equal(t, "Whatever the model said", slides[0].Title)
	assert.Equal(t, "Conclusion", slides[2].Title)
}

func TestNormalizeKeepsRecognizedClosing(t *testing.T) {
	for _, title := range []string{"Thank You", "Key Takeaways", "Executive Summary"} {
		slides := []Slide{
			{SlideNumber: 1, Title: "T", Content: "• a."},
			{SlideNumber: 2, Title: title, Content: "• b."},
		}
		out := Normalize(slides, "Topic", 19)
		assert.Equal(t, title, out[1].Title)
	}
}

func TestNormalizeReappliesClosingAfterCap(t *testing.T) {
	slides := []Slide{
		{SlideNumber: 1, Title: "T", Content: "• a."},
		{SlideNumber: 2, Title: "Data Deep Dive", Content: "• b."},
		{SlideNumber: 3, Title: "Mid Section", Content: "• c."},
		{SlideNumber: 4, Title: "Thank You", Content: "• d."},
	}

	// 裁剪换掉了原来的收尾页，新末页需要再次改写
	out := Normalize(slides, "Topic", 2)
	require.Len(t, out, 2)
	assert.Equal(t, "Summary & Next Steps", out[1].Title)
	assert.Equal(t, 2, out[1].SlideNumber)
}

func TestNormalizeStableOnSecondPass(t *testing.T) {
	slides := []Slide{
		{SlideNumber: 7, Title: "Raw Model Title", Content: "• Subtitle."},
		{SlideNumber: 2, Title: "Adoption Curve", Content: "• 24% YoY."},
		{SlideNumber: 9, Title: "Charging Networks", Content: "• 1.2M points."},
		{SlideNumber: 4, Title: "Open Issues", Content: "• Grid load."},
	}

	// 已归一化的大纲再次归一化必须原样返回
	first := Normalize(slides, "Electric Vehicles", 19)
	assert.Equal(t, first, Normalize(first, "Electric Vehicles", 19))

	// 走裁剪路径时同样稳定
	capped := Normalize(slides, "Electric Vehicles", 2)
	require.Len(t, capped, 2)
	assert.Equal(t, capped, Normalize(capped, "Electric Vehicles", 2))
}

func TestNormalizeEmptyFallsBack(t *testing.T) {
	out := Normalize(nil, "Quantum Computing", 19)
	require.Len(t, out, 5)
	assert.Equal(t, "Quantum Computing", out[0].Title)
}

func TestNormalizeLongTopicTruncated(t *testing.T) {
	topic := strings.Repeat("a", 120)
	out := Normalize([]Slide{{SlideNumber: 1, Title: "x", Content: "• y."}}, topic, 19)
	assert.Equal(t, maxTitleRunes, len(out[0].Title))
}

func TestExpandBullets(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "项目符号换行切分",
			content: "• First fact.\n• Second fact.",
			want:    []string{"First fact.", "Second fact."},
		},
		{
			name:    "字面反斜杠换行",
			content: `• First fact.\n• Second fact.`,
			want:    []string{"First fact.", "Second fact."},
		},
		{
			name:    "纯文本作为单条要点",
			content: "A single line summary.",
			want:    []string{"A single line summary."},
		},
		{
			name:    "空白内容",
			content: "   ",
			want:    []string{},
		},
		{
			name:    "空行被丢弃",
			content: "• First.\n\n• \n• Second.",
			want:    []string{"First.", "Second."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandBullets(tt.content))
		})
	}
}

func TestExpandBulletsTruncatesSingle(t *testing.T) {
	long := strings.Repeat("x", maxBulletRunes+50)
	got := ExpandBullets(long)
	require.Len(t, got, 1)
	assert.Len(t, got[0], maxBulletRunes)
}

func TestFallbackSlidesDeterministic(t *testing.T) {
	a := FallbackSlides("Solar Energy", 19)
	b := FallbackSlides("Solar Energy", 19)
	assert.Equal(t, a, b)

	require.Len(t, a, 5)
	// 首末页都引用主题
	assert.Equal(t, "Solar Energy", a[0].Title)
	assert.Contains(t, a[4].Content, "Solar Energy")
	for i, s := range a {
		assert.Equal(t, i+1, s.SlideNumber)
	}
}

func TestFallbackSlidesCapped(t *testing.T) {
	out := FallbackSlides("Topic", 3)
	require.Len(t, out, 3)
	assert.Equal(t, 3, out[2].SlideNumber)
}

func TestFallbackSlidesEmptyTopic(t *testing.T) {
	out := FallbackSlides("", 19)
	assert.Equal(t, "Presentation", out[0].Title)
}
