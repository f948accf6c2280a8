package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairReslice(t *testing.T) {
	// 原始切片边界取错，但全文含完整列表（Python 风格引号）
	text := `Here you go: [{'slide_number': 1, 'title': 'Market', 'content': '• $5B in 2025.'}] Done.`

	slides, strategy := Repair(text, 19)
	require.Len(t, slides, 1)
	assert.Equal(t, RepairStrategyReslice, strategy)
	assert.Equal(t, "Market", slides[0].Title)
}

func TestRepairCutAtRecordComma(t *testing.T) {
	// 最后一条记录在字符串中途被截断，应丢弃尾巴保留完整记录
	text := `[{"slide_number": 1, "title": "Revenue", "content": "• Grew 40% YoY."},` +
		`{"slide_number": 2, "title": "Costs", "content": "• Cut by 12`

	slides, strategy := Repair(text, 19)
	require.Len(t, slides, 1)
	assert.Equal(t, RepairStrategyCutComma, strategy)
	assert.Equal(t, "Revenue", slides[0].Title)
}

func TestRepairCutAtRecordBrace(t *testing.T) {
	// 输出正好停在最后一条记录收尾处，缺少列表闭合
	text := `[{"slide_number": 1, "title": "Growth", "content": "• Up 18% in 2025."}`

	slides, strategy := Repair(text, 19)
	require.Len(t, slides, 1)
	assert.Equal(t, RepairStrategyCutBrace, strategy)
	assert.Equal(t, "Growth", slides[0].Title)
}

func TestRepairRegexExtraction(t *testing.T) {
	// 外层结构彻底损坏，仅能逐条提取完整记录
	text := `garbage {"slide_number": 1, "title": "Alpha", "content": "• 10% share."} noise ` +
		`{"slide_number": 2, "title": "", "content": ""} tail`

	slides, strategy := Repair(text, 19)
	require.Len(t, slides, 2)
	assert.Equal(t, RepairStrategyRegex, strategy)
	assert.Equal(t, "Alpha", slides[0].Title)
	// 空字段回填占位值
	assert.Equal(t, "Slide 2", slides[1].Title)
	assert.Equal(t, "Content to be researched", slides[1].Content)
}

func TestRepairExhausted(t *testing.T) {
	slides, strategy := Repair("nothing structured here", 19)
	assert.Empty(t, slides)
	assert.Equal(t, RepairStrategyExhausted, strategy)
}

func TestRepairCapsToTarget(t *testing.T) {
	text := `[{"slide_number": 1, "title": "A", "content": "• 1."},` +
		`{"slide_number": 2, "title": "B", "content": "• 2."},` +
		`{"slide_number": 3, "title": "C", "content": "• 3."},` +
		`{"slide_number": 4, "title": "D", "content": "• 4`

	slides, strategy := Repair(text, 2)
	assert.Equal(t, RepairStrategyCutComma, strategy)
	assert.Len(t, slides, 2)
}
