package outline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTargets(t *testing.T) {
	tests := []struct {
		name     string
		template string
		charts   bool
		wantMax  int
		wantTgt  int
	}{
		{name: "corporate 模板篇幅最长", template: "corporate", wantMax: 15, wantTgt: 15},
		{name: "pitch 模板最短", template: "pitch", wantMax: 10, wantTgt: 10},
		{name: "其余模板取默认", template: "builtin_3", wantMax: 12, wantTgt: 12},
		{name: "空模板取默认", template: "", wantMax: 12, wantTgt: 12},
		{name: "大小写与空白不敏感", template: "  Corporate  ", wantMax: 15, wantTgt: 15},
		{name: "图表追加预算", template: "builtin_1", charts: true, wantMax: 16, wantTgt: 16},
		{name: "图表预算受硬上限约束", template: "corporate", charts: true, wantMax: 19, wantTgt: 19},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTargets(tt.template, tt.charts, 6, 4, 19)
			assert.Equal(t, 6, got.MinSlides)
			assert.Equal(t, tt.wantMax, got.MaxSlides)
			assert.Equal(t, tt.wantTgt, got.Target)
		})
	}
}

func TestComputeTargetsHardCap(t *testing.T) {
	got := ComputeTargets("corporate", true, 6, 10, 19)
	assert.Equal(t, 25, got.MaxSlides)
	assert.Equal(t, 19, got.Target)
}

func TestBuildPrompt(t *testing.T) {
	targets := SlideTargets{MinSlides: 6, MaxSlides: 12, Target: 12}
	p := BuildPrompt("Market grew 40% in 2025.", "EV adoption", targets, false, false)

	assert.Contains(t, p, `USER PROMPT / TOPIC: "EV adoption"`)
	assert.Contains(t, p, "Market grew 40% in 2025.")
	assert.Contains(t, p, "between 6 and 12")
	assert.NotContains(t, p, "CRITICAL:")
	assert.NotContains(t, p, "CHARTS:")
}

func TestBuildPromptStrictRetry(t *testing.T) {
	targets := SlideTargets{MinSlides: 6, MaxSlides: 12, Target: 12}
	p := BuildPrompt("research", "topic", targets, true, true)

	assert.Contains(t, p, "CRITICAL: Your previous response contained placeholder")
	assert.Contains(t, p, "CHARTS:")
}

func TestBuildPromptEmptyResearch(t *testing.T) {
	targets := SlideTargets{MinSlides: 6, MaxSlides: 12, Target: 12}
	p := BuildPrompt("   ", "EV adoption", targets, false, false)

	assert.Contains(t, p, "Topic: EV adoption. No web research provided.")
}

func TestBuildPromptTruncatesInputs(t *testing.T) {
	targets := SlideTargets{MinSlides: 6, MaxSlides: 12, Target: 12}
	research := strings.Repeat("r", maxResearchRunes+500)
	topic := strings.Repeat("t", maxTopicRunes+50)
	p := BuildPrompt(research, topic, targets, false, false)

	assert.NotContains(t, p, strings.Repeat("r", maxResearchRunes+1))
	assert.NotContains(t, p, strings.Repeat("t", maxTopicRunes+1))
}
