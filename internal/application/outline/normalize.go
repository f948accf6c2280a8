package outline

import (
	"fmt"
	"strings"
)

// Normalize 归一化幻灯片序列
// 首页标题替换为主题、末页标题保证收尾语气、全量重新编号后裁剪到 target；
// 裁剪可能换掉原末页，因此收尾改写在裁剪后再执行一次。空输入落到兜底大纲。
func Normalize(slides []Slide, topic string, target int) []Slide {
	if len(slides) == 0 {
		return FallbackSlides(topic, target)
	}

	out := make([]Slide, len(slides))
	copy(out, slides)

	out[0].Title = displayTopic(topic, maxTitleRunes)
	out[0].SlideNumber = 1

	ensureClosingTitle(out)

	for i := range out {
		out[i].SlideNumber = i + 1
	}

	if target > 0 && len(out) > target {
		out = out[:target]
		ensureClosingTitle(out)
	}
	return out
}

// ensureClosingTitle 末页标题不含收尾关键词时强制改写
func ensureClosingTitle(slides []Slide) {
	if len(slides) == 0 {
		return
	}
	last := len(slides) - 1
	if !hasClosingTitle(slides[last].Title) {
		slides[last].Title = closingTitle
		slides[last].SlideNumber = last + 1
	}
}

// ExpandBullets 将扁平字符串内容还原为要点序列
// 依据项目符号或字面 \n 切分；无法切分时整体作为单条要点并截断。
func ExpandBullets(content string) []string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return []string{}
	}
	if strings.Contains(trimmed, "• ") || strings.Contains(trimmed, "\n") || strings.Contains(trimmed, `\n`) {
		text := strings.ReplaceAll(trimmed, `\n`, "\n")
		parts := strings.Split(text, "\n")
		bullets := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(p), "•"))
			if p != "" {
				bullets = append(bullets, p)
			}
		}
		if len(bullets) > 0 {
			return bullets
		}
	}
	return []string{truncateByRunes(trimmed, maxBulletRunes)}
}

// FallbackSlides 固定结构的五页兜底大纲
// 不依赖任何外部输入，相同主题与目标下结果确定。
func FallbackSlides(topic string, target int) []Slide {
	t := displayTopic(topic, maxTitleRunes)

	slides := []Slide{
		{SlideNumber: 1, Title: t, Content: fmt.Sprintf("• An overview of %s.\n• Executive Summary.", t)},
		{SlideNumber: 2, Title: "Market Context: " + t, Content: "• Fetching latest market data..."},
		{SlideNumber: 3, Title: "Core Analysis: " + t, Content: "• Detailed insights currently unavailable.\n• Please try refining the prompt."},
		{SlideNumber: 4, Title: "Financials & Metrics", Content: "• Data temporarily unavailable."},
		{SlideNumber: 5, Title: "Summary & Conclusion", Content: "• Concluding thoughts on " + t + "."},
	}

	if target > 0 && target < len(slides) {
		slides = slides[:target]
	}
	for i := range slides {
		slides[i].SlideNumber = i + 1
	}
	return slides
}
