package outline

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neura-deck-api/internal/domain/entity"
)

// fakeGateway 按调用次序返回预置响应
type fakeGateway struct {
	responses []string
	errs      []error
	prompts   []string
	temps     []float32
}

func (f *fakeGateway) GenerateText(_ context.Context, prompt string, temperature float32, _ int) (string, error) {
	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	f.temps = append(f.temps, temperature)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("no more responses")
}

func goodOutlineJSON() string {
	return `[
		{"slide_number": 1, "title": "EV adoption", "content": "• European EV sales hit 3.2M units in 2025."},
		{"slide_number": 2, "title": "Market Size & Growth", "content": "• Registrations grew 24% YoY.\n• Norway leads at 89% share."},
		{"slide_number": 3, "title": "Charging Infrastructure", "content": "• 630k public chargers installed by Q2 2025.\n• Fast chargers up 41%."},
		{"slide_number": 4, "title": "Policy Landscape", "content": "• 2035 combustion ban confirmed by 27 member states.\n• Subsidies average €4,500 per vehicle."},
		{"slide_number": 5, "title": "Risks & Mitigation", "content": "• Lithium prices rose 18% in H1 2025.\n• Grid capacity gaps in 6 markets."},
		{"slide_number": 6, "title": "Key Takeaways", "content": "• 3.2M units, 24% growth, 2035 deadline."}
	]`
}

func TestGenerateHappyPath(t *testing.T) {
	gw := &fakeGateway{responses: []string{"Here is your outline:\n" + goodOutlineJSON()}}
	g := NewGenerator(gw, Config{})

	out := g.Generate(context.Background(), Request{Topic: "EV adoption in Europe", TemplateID: "builtin_1"})

	require.NotNil(t, out)
	assert.Equal(t, entity.OutlineSourceModel, out.Source)
	require.Len(t, gw.prompts, 1)
	assert.Equal(t, firstPassTemperature, gw.temps[0])

	require.Len(t, out.Slides, 6)
	assert.Equal(t, len(out.Slides), out.TotalSlides)
	assert.Equal(t, "EV adoption in Europe", out.Slides[0].Title)
	assert.Equal(t, "Key Takeaways", out.Slides[5].Title)
	// 内容已还原为要点序列
	assert.Equal(t, []string{"Registrations grew 24% YoY.", "Norway leads at 89% share."}, out.Slides[1].Content)
	for i, s := range out.Slides {
		assert.Equal(t, i+1, s.SlideNumber)
	}
}

func TestGenerateGatewayErrorFallsBack(t *testing.T) {
	gw := &fakeGateway{errs: []error{errors.New("all providers exhausted")}}
	g := NewGenerator(gw, Config{})

	out := g.Generate(context.Background(), Request{Topic: "Solar Energy", TemplateID: "pitch"})

	assert.Equal(t, entity.OutlineSourceFallback, out.Source)
	require.Len(t, out.Slides, 5)
	assert.Equal(t, "Solar Energy", out.Slides[0].Title)
	assert.Contains(t, out.Slides[4].Content[0], "Solar Energy")
}

func TestGenerateUnparsableFallsBack(t *testing.T) {
	gw := &fakeGateway{responses: []string{"I am unable to create an outline for this topic."}}
	g := NewGenerator(gw, Config{})

	out := g.Generate(context.Background(), Request{Topic: "Solar Energy"})
	assert.Equal(t, entity.OutlineSourceFallback, out.Source)
	assert.Len(t, out.Slides, 5)
}

func TestGenerateTruncatedOutputRepaired(t *testing.T) {
	truncated := `[{"slide_number": 1, "title": "Solar", "content": "• Capacity hit 420GW in 2025.\n• Costs fell 31% since 2020.\n• Utility share reached 62%."},` +
		`{"slide_number": 2, "title": "Storage", "content": "• Battery installs up 55% with 48GWh added in 2025.\n• Average duration 3.4 hours."},` +
		`{"slide_number": 3, "title": "Outlook", "content": "• Pipeline of 1.1TW announ`

	gw := &fakeGateway{responses: []string{truncated}}
	g := NewGenerator(gw, Config{})

	out := g.Generate(context.Background(), Request{Topic: "Solar Energy", TemplateID: "builtin_2"})

	assert.Equal(t, entity.OutlineSourceRepaired, out.Source)
	// 被截断的第三条记录被丢弃，前两条保留
	require.Len(t, out.Slides, 2)
	assert.Equal(t, "Solar Energy", out.Slides[0].Title)
	assert.Equal(t, "Summary & Next Steps", out.Slides[1].Title)
}

func TestGenerateSingleSalvagedSlideGetsClosingTitle(t *testing.T) {
	truncated := `[{"slide_number":1,"title":"A","content":"ok"},{"slide_number":2,"title":"B","content":"cu`

	gw := &fakeGateway{responses: []string{truncated}}
	g := NewGenerator(gw, Config{})

	out := g.Generate(context.Background(), Request{Topic: "X"})

	assert.Equal(t, entity.OutlineSourceRepaired, out.Source)
	// 仅挽回一条记录：该页同时是首页和末页，收尾改写覆盖主题标题
	require.Len(t, out.Slides, 1)
	assert.Equal(t, "Summary & Next Steps", out.Slides[0].Title)
	assert.Equal(t, 1, out.Slides[0].SlideNumber)
}

func TestGenerateDegenerateTriggersStrictRetry(t *testing.T) {
	degenerate := `[
		{"slide_number": 1, "title": "Topic", "content": "Key Point 1"},
		{"slide_number": 2, "title": "Overview", "content": "Content."},
		{"slide_number": 3, "title": "Details", "content": "To be filled"}
	]`

	gw := &fakeGateway{responses: []string{degenerate, goodOutlineJSON()}}
	g := NewGenerator(gw, Config{})

	out := g.Generate(context.Background(), Request{Topic: "EV adoption", TemplateID: "builtin_1"})

	require.Len(t, gw.prompts, 2)
	assert.Equal(t, retryTemperature, gw.temps[1])
	assert.Contains(t, gw.prompts[1], "CRITICAL: Your previous response contained placeholder")

	assert.Equal(t, entity.OutlineSourceModel, out.Source)
	require.Len(t, out.Slides, 6)
	assert.Equal(t, "Market Size & Growth", out.Slides[1].Title)
}

func TestGenerateStrictRetryFailureKeepsOriginal(t *testing.T) {
	degenerate := `[
		{"slide_number": 1, "title": "Topic", "content": "Key Point 1"},
		{"slide_number": 2, "title": "Overview", "content": "Content."}
	]`

	gw := &fakeGateway{
		responses: []string{degenerate, ""},
		errs:      []error{nil, errors.New("provider timeout")},
	}
	g := NewGenerator(gw, Config{})

	out := g.Generate(context.Background(), Request{Topic: "EV adoption"})

	// 重试失败时保留首次结果而不是落兜底
	require.Len(t, gw.prompts, 2)
	assert.Equal(t, entity.OutlineSourceModel, out.Source)
	require.Len(t, out.Slides, 2)
	assert.Equal(t, "EV adoption", out.Slides[0].Title)
}

func TestGenerateDegeneracyVoteSeesSlidesBeyondCap(t *testing.T) {
	// 12 页输出，占位页集中在模板裁剪线之后：
	// 投票必须基于完整序列，仅看前 10 页会漏判退化
	var sb strings.Builder
	sb.WriteString("[")
	for i := 1; i <= 12; i++ {
		if i > 1 {
			sb.WriteString(",")
		}
		n := strconv.Itoa(i)
		if i <= 5 {
			sb.WriteString(`{"slide_number": ` + n + `, "title": "Region ` + n + ` Metrics", "content": "• Grew 12% to 3.4M in 2025 across region ` + n + `."}`)
		} else {
			sb.WriteString(`{"slide_number": ` + n + `, "title": "Section ` + n + `", "content": "To be filled"}`)
		}
	}
	sb.WriteString("]")

	gw := &fakeGateway{responses: []string{sb.String(), goodOutlineJSON()}}
	g := NewGenerator(gw, Config{})

	out := g.Generate(context.Background(), Request{Topic: "EV adoption", TemplateID: "pitch"})

	require.Len(t, gw.prompts, 2)
	assert.Equal(t, retryTemperature, gw.temps[1])
	assert.Equal(t, entity.OutlineSourceModel, out.Source)
	assert.Equal(t, "Market Size & Growth", out.Slides[1].Title)
}

func TestGenerateCapsToTemplateTarget(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 1; i <= 14; i++ {
		if i > 1 {
			sb.WriteString(",")
		}
		n := strconv.Itoa(i)
		sb.WriteString(`{"slide_number": ` + n + `, "title": "Section ` + n + ` Metrics", "content": "• Grew 12% to 3.4M in 2025 across region ` + n + `."}`)
	}
	sb.WriteString("]")

	gw := &fakeGateway{responses: []string{sb.String()}}
	g := NewGenerator(gw, Config{})

	// pitch 模板裁剪到 10 页
	out := g.Generate(context.Background(), Request{Topic: "Topic", TemplateID: "pitch"})
	require.Len(t, out.Slides, 10)
	assert.Equal(t, "Summary & Next Steps", out.Slides[9].Title)
}

func TestGenerateTopicFitDisabledByDefault(t *testing.T) {
	// 非商业主题 + 商业标题：默认配置下不触发重试
	outline := `[
		{"slide_number": 1, "title": "Honeybees", "content": "• Colonies produce 29kg honey per year on average."},
		{"slide_number": 2, "title": "Market Context", "content": "• Global honey output reached 1.8M tonnes in 2025."},
		{"slide_number": 3, "title": "Key Takeaways", "content": "• 1.8M tonnes, 29kg average yield."}
	]`

	gw := &fakeGateway{responses: []string{outline}}
	g := NewGenerator(gw, Config{})

	out := g.Generate(context.Background(), Request{Topic: "History of honeybees"})
	require.Len(t, gw.prompts, 1)
	assert.Equal(t, entity.OutlineSourceModel, out.Source)
}

func TestGenerateTopicFitEnforced(t *testing.T) {
	businessStyled := `[
		{"slide_number": 1, "title": "Honeybees", "content": "• Colonies produce 29kg honey per year on average."},
		{"slide_number": 2, "title": "Market Context", "content": "• Global honey output reached 1.8M tonnes in 2025."},
		{"slide_number": 3, "title": "Key Takeaways", "content": "• 1.8M tonnes, 29kg average yield."}
	]`
	neutral := `[
		{"slide_number": 1, "title": "Honeybees", "content": "• Colonies produce 29kg honey per year on average."},
		{"slide_number": 2, "title": "Hive Biology", "content": "• A queen lays up to 2,000 eggs per day."},
		{"slide_number": 3, "title": "Key Takeaways", "content": "• 1.8M tonnes, 29kg average yield."}
	]`

	gw := &fakeGateway{responses: []string{businessStyled, neutral}}
	g := NewGenerator(gw, Config{EnforceTopicFit: true})

	out := g.Generate(context.Background(), Request{Topic: "History of honeybees"})
	require.Len(t, gw.prompts, 2)
	assert.Equal(t, "Hive Biology", out.Slides[1].Title)
}
