package outline

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// SlicePayload 截取模型输出中最外层的 JSON 负载
// 优先取首个 '[' 到最后一个 ']'，否则取首个 '{' 到最后一个 '}'。
// 模型经常在结构化负载前后夹杂解释性文字，这里用首末括号启发式低成本剥离，
// 不做完整括号配对。闭括号缺失（输出中途被截断）时保留到文本末尾，
// 交由后续修复级联处理。
func SlicePayload(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 {
		start = strings.Index(raw, "{")
		end = strings.LastIndex(raw, "}")
	}
	if start == -1 {
		return "", false
	}
	if end <= start {
		return raw[start:], true
	}
	return raw[start : end+1], true
}

// ParseSlides 将切片后的 JSON 文本解析为幻灯片序列
// 返回 ok=false 表示负载不可用（调用方应进入截断修复），单个元素畸形不会导致失败，
// 会被替换为占位记录以保住页位。
func ParseSlides(payload string) ([]Slide, bool) {
	elems, ok := decodeSlideList(payload)
	if !ok {
		// 常见模型笔误的文本级修正后重试一次
		elems, ok = decodeSlideList(applyTextFixes(payload))
		if !ok {
			return nil, false
		}
	}
	if len(elems) == 0 {
		return nil, false
	}
	return normalizeElements(elems), true
}

// decodeSlideList 严格解析：裸数组，或包含 slides 键的对象
func decodeSlideList(s string) ([]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	switch t := v.(type) {
	case []any:
		return t, true
	case map[string]any:
		if slides, ok := t["slides"].([]any); ok {
			return slides, true
		}
	}
	return nil, false
}

// applyTextFixes 修正最常见的模型输出错误：
// 单引号、另一种语言大小写的布尔/空值字面量、字符串值内的裸换行。
func applyTextFixes(s string) string {
	s = strings.ReplaceAll(s, "'", `"`)
	s = strings.ReplaceAll(s, "True", "true")
	s = strings.ReplaceAll(s, "False", "false")
	s = strings.ReplaceAll(s, "None", "null")
	return escapeBareNewlines(s)
}

// normalizeElements 将任意形态的元素序列整形为统一的幻灯片记录
func normalizeElements(elems []any) []Slide {
	fixed := make([]Slide, 0, len(elems))
	for _, el := range elems {
		switch t := el.(type) {
		case []any:
			// 已知模型怪癖：单条记录被包进嵌套单元素列表
			if len(t) > 0 {
				if m, ok := t[0].(map[string]any); ok {
					fixed = append(fixed, slideFromMap(m, len(fixed)+1))
					continue
				}
			}
			fixed = append(fixed, placeholderSlide(len(fixed)+1))
		case map[string]any:
			fixed = append(fixed, slideFromMap(t, len(fixed)+1))
		default:
			fixed = append(fixed, placeholderSlide(len(fixed)+1))
		}
	}
	return fixed
}

// slideFromMap 将记录对象转换为统一幻灯片形态
// 字符串内容超长则截断加省略标记；列表内容展平为要点串，保证下游形态统一。
// 完整的要点序列由调用方在归一化之后再还原。
func slideFromMap(m map[string]any, pos int) Slide {
	s := Slide{
		SlideNumber: intFromAny(m["slide_number"], pos),
		Title:       stringFromAny(m["title"]),
		Type:        stringFromAny(m["type"]),
	}

	switch c := m["content"].(type) {
	case string:
		content := strings.ReplaceAll(c, `\n`, "\n")
		if utf8.RuneCountInString(content) > maxContentRunes {
			content = truncateByRunes(content, maxContentRunes) + "..."
		}
		s.Content = content
	case []any:
		items := c
		if len(items) > maxBulletsPerSlide {
			items = items[:maxBulletsPerSlide]
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, "• "+stringFromAnyValue(item))
		}
		s.Content = strings.Join(parts, "\n")
	default:
		s.Content = ""
	}
	return s
}

// placeholderSlide 占位记录：保住页位而不是丢弃
func placeholderSlide(pos int) Slide {
	return Slide{
		SlideNumber: pos,
		Title:       fmt.Sprintf("Slide %d", pos),
		Content:     "Content",
	}
}

func intFromAny(v any, fallback int) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
	}
	return fallback
}

func stringFromAny(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// stringFromAnyValue 任意值转显示字符串（列表内容元素可能不是字符串）
func stringFromAnyValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
