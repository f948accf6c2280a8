package outline

import (
	"regexp"
	"strconv"
	"strings"
)

// 修复策略标识（用于指标与日志）
const (
	RepairStrategyReslice   = "reslice"
	RepairStrategyCutComma  = "cut_record_comma"
	RepairStrategyCutBrace  = "cut_record_brace"
	RepairStrategyRegex     = "regex_extract"
	RepairStrategyExhausted = "exhausted"
)

// slideRecordPattern 提取独立完整记录的兜底模式，忽略外层列表结构
var slideRecordPattern = regexp.MustCompile(`\{"slide_number":\s*(\d+),\s*"title":\s*"([^"]*)",\s*"content":\s*"([^"]*)"\}`)

// Repair 对解析失败的文本做截断修复
// 按从紧到松的顺序尝试四个策略，取第一个产出至少一条记录的结果并截断到 target；
// 全部失败返回空序列，由调用方落到兜底大纲。
func Repair(text string, target int) ([]Slide, string) {
	// 策略一：重新按首末方括号切片并施加文本修正
	// 处理最初切片边界取错的情况。
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		resliced := text[start : end+1]
		resliced = strings.ReplaceAll(resliced, "'", `"`)
		resliced = strings.ReplaceAll(resliced, "True", "true")
		resliced = strings.ReplaceAll(resliced, "False", "false")
		resliced = strings.ReplaceAll(resliced, "None", "null")
		if slides := strictList(resliced); len(slides) > 0 {
			return capSlides(slides, target), RepairStrategyReslice
		}
	}

	// 策略二：截到最后一个「收尾上一条、开启下一条」的三字符序列
	// 丢弃被截断的尾部记录，保留之前全部完整记录。
	if idx := strings.LastIndex(text, `"},`); idx >= 0 {
		if slides := strictList(text[:idx+2] + "]"); len(slides) > 0 {
			return capSlides(slides, target), RepairStrategyCutComma
		}
	}

	// 策略三：更宽松的记录边界，适配正好停在记录收尾处的文本
	if idx := strings.LastIndex(text, `"}`); idx >= 0 {
		if slides := strictList(text[:idx+2] + "]"); len(slides) > 0 {
			return capSlides(slides, target), RepairStrategyCutBrace
		}
	}

	// 策略四：逐条正则提取完整记录，彻底放弃外层结构
	if matches := slideRecordPattern.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		slides := make([]Slide, 0, len(matches))
		for _, m := range matches {
			num, err := strconv.Atoi(m[1])
			if err != nil || num <= 0 {
				num = len(slides) + 1
			}
			title := m[2]
			if title == "" {
				title = "Slide " + m[1]
			} else {
				title = truncateByRunes(title, maxTitleRunes)
			}
			content := m[3]
			if content == "" {
				content = "Content to be researched"
			} else {
				content = truncateByRunes(content, maxContentRunes)
			}
			slides = append(slides, Slide{SlideNumber: num, Title: title, Content: content})
		}
		return capSlides(slides, target), RepairStrategyRegex
	}

	return nil, RepairStrategyExhausted
}

// strictList 严格解析列表并整形，任何失败返回空
func strictList(s string) []Slide {
	elems, ok := decodeSlideList(s)
	if !ok || len(elems) == 0 {
		return nil
	}
	return normalizeElements(elems)
}

func capSlides(slides []Slide, target int) []Slide {
	if target > 0 && len(slides) > target {
		return slides[:target]
	}
	return slides
}
