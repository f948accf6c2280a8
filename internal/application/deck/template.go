// Package deck 实现演示文稿生成的应用服务与后台流水线
package deck

import "strings"

// DefaultTemplateID 未指定或无法识别时使用的模板
const DefaultTemplateID = "builtin_1"

// templateAliases 前端历史版本沿用的模板别名
var templateAliases = map[string]string{
	"1": "builtin_1", "2": "builtin_2", "3": "builtin_3",
	"4": "builtin_4", "5": "builtin_5", "6": "builtin_6",
	"builtin 1": "builtin_1", "builtin 2": "builtin_2", "builtin 3": "builtin_3",
	"theme_1": "builtin_1", "theme_2": "builtin_2", "theme_3": "builtin_3",
	"theme1": "builtin_1", "theme2": "builtin_2", "theme3": "builtin_3",
}

// canonicalTemplates 当前支持的全部模板 ID
var canonicalTemplates = map[string]struct{}{
	"builtin_1": {}, "builtin_2": {}, "builtin_3": {},
	"builtin_4": {}, "builtin_5": {}, "builtin_6": {},
	"corporate": {}, "pitch": {},
}

// NormalizeTemplateID 将任意模板写法归一为规范 ID
// 空值、未知值一律落到 DefaultTemplateID，不报错。
func NormalizeTemplateID(templateID string) string {
	tid := strings.ToLower(strings.TrimSpace(templateID))
	if tid == "" {
		return DefaultTemplateID
	}
	if canonical, ok := templateAliases[tid]; ok {
		return canonical
	}
	if _, ok := canonicalTemplates[tid]; ok {
		return tid
	}
	// 别名中的空格与下划线可互换
	for alias, canonical := range templateAliases {
		if strings.ReplaceAll(alias, " ", "_") == tid || strings.ReplaceAll(tid, "_", " ") == alias {
			return canonical
		}
	}
	return DefaultTemplateID
}
