package outline

import (
	"strings"
	"unicode/utf8"
)

func truncateByRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}

// displayTopic 将用户提示词整理为可用作标题的主题串
func displayTopic(topic string, maxRunes int) string {
	t := topic
	if strings.TrimSpace(t) == "" {
		t = "Presentation"
	}
	t = strings.TrimSpace(truncateByRunes(t, maxRunes))
	if t == "" {
		return "Title"
	}
	return t
}

// escapeBareNewlines 转义字符串值内部的裸换行
// 裸换行会让严格 JSON 解析失败；已转义（前一字符为反斜杠）的保持原样。
func escapeBareNewlines(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' && (i == 0 || s[i-1] != '\\') {
			b.WriteString(`\n`)
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// containsDigit 判断文本是否含有任意数字字符
func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// hasClosingTitle 判断标题是否已是收尾页标题
func hasClosingTitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	for _, kw := range closingKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}
