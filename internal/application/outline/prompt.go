package outline

import (
	"fmt"
	"strings"
)

// 提示词构造阶段的输入裁剪上限
const (
	maxResearchRunes = 14000
	maxTopicRunes    = 200
)

// strictRetryInstruction 检测到占位内容后重试时追加的强约束
const strictRetryInstruction = `
CRITICAL: Your previous response contained placeholder or generic text. This time you MUST extract ONLY specific facts, numbers, company names, and concrete claims FROM THE RAW RESEARCH below and put them in every slide. Do NOT output "Key Point 1", "Content.", "Overview of topic", or similar. Copy real data from the research into the bullets. The deck must be production-ready.
`

// chartsInstruction 启用图表时追加的取材约束
const chartsInstruction = `
CHARTS: If a slide contains multiple numerical data points, the system will automatically generate a custom chart for it. Do NOT force generic slides like "Sales Funnel", "Team Growth", or "Market Opportunity" unless they are highly relevant to the specific topic and research. Focus purely on the data provided in the research.`

// SlideTargets 依据模板与图表开关得到的页数约束
type SlideTargets struct {
	MinSlides int
	MaxSlides int
	// Target 实际裁剪目标，为 MaxSlides 与全局硬上限的较小值
	Target int
}

// ComputeTargets 计算模板对应的页数约束
// corporate 模板篇幅最长，pitch 最短；启用图表时额外放宽若干页，
// 但任何情况下不超过 hardCap。
func ComputeTargets(templateID string, chartsEnabled bool, minSlides, chartsExtra, hardCap int) SlideTargets {
	tid := strings.ToLower(strings.TrimSpace(templateID))
	baseMax := 12
	switch tid {
	case "corporate":
		baseMax = 15
	case "pitch":
		baseMax = 10
	}
	maxSlides := baseMax
	if chartsEnabled {
		maxSlides += chartsExtra
	}
	target := maxSlides
	if hardCap > 0 && target > hardCap {
		target = hardCap
	}
	return SlideTargets{MinSlides: minSlides, MaxSlides: maxSlides, Target: target}
}

// BuildPrompt 构造大纲生成提示词
// 调研文本与主题超长时裁剪；strictRetry 为 true 时追加反占位约束。
func BuildPrompt(research, topic string, targets SlideTargets, chartsEnabled, strictRetry bool) string {
	topic = truncateByRunes(topic, maxTopicRunes)
	if topic == "" {
		topic = "Topic"
	}
	research = strings.TrimSpace(research)
	if research == "" {
		research = fmt.Sprintf("Topic: %s. No web research provided.", topic)
	}
	research = truncateByRunes(research, maxResearchRunes)

	strict := ""
	if strictRetry {
		strict = strictRetryInstruction
	}
	charts := ""
	if chartsEnabled {
		charts = chartsInstruction
	}

	return fmt.Sprintf(`You are a senior consultant. Create a production-ready presentation outline. Every title and every bullet MUST be taken from or directly supported by the RAW RESEARCH below. The output is for a finished, client-ready deck, with no placeholders.
%s
%s
RAW RESEARCH:
%s

USER PROMPT / TOPIC: "%s"

YOUR TASKS:
1. Decide the number of slides (between %d and %d). Cover a wide range of topics from the prompt and research; only include slides that add real value.
2. Choose every slide title yourself, specific to the topic and the research (e.g. "Market Size & Growth", "Technical Architecture", "Risks & Mitigation"). No generic labels like "Slide 3" or "Key Points".
3. For section dividers: insert slides with "type":"section_divider", and YOU choose the "title". Use "content" as a single one-line summary only (no bullet list).
4. Every content slide must have 4 or 5 bullet points. Each bullet MUST contain at least one number, percentage, year, or concrete fact FROM THE RAW RESEARCH. Bad: "Company is growing." Good: "Revenue grew 40%% YoY to $2M in 2025." Extract and copy specific facts from the research, do not invent or generalize.
5. Use "content" as a string with bullets separated by \n (e.g. "• Fact one.\n• Fact two.\n• Fact three.\n• Fact four.") or as an array of strings.
6. FORBIDDEN: no "details for this section", "coming soon", "TBD", "to be filled", "Key Point 1", "Content.", "Overview of [topic]". Use ONLY substantive facts from the research.

Output format (JSON array only):
[{"slide_number":1,"title":"<topic>","content":"• Subtitle from research."}, {"slide_number":2,"title":"<specific title>","content":"• Specific fact with number.\n• Another fact.\n• Third.\n• Fourth."}, {"slide_number":3,"title":"<section name>","content":"One-line summary.","type":"section_divider"}, ..., {"slide_number":N,"title":"Thank You","content":"• Summary.\n• ..."}]
`, strict, charts, research, topic, targets.MinSlides, targets.MaxSlides)
}
