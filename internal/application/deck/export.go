package deck

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"neura-deck-api/internal/domain/entity"
	apperr "neura-deck-api/pkg/errors"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

const htmlPageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; color: #1a1a2e; }
h1 { border-bottom: 2px solid #4361ee; padding-bottom: .4rem; }
h2 { margin-top: 2rem; color: #16213e; }
hr { border: none; border-top: 1px dashed #aaa; margin: 2rem 0; }
ul { line-height: 1.7; }
</style>
</head>
<body>
%s
</body>
</html>
`

// BuildMarkdown 将演示文稿大纲渲染为 Markdown 文档
// 分隔页渲染为水平线加标题，普通页为编号标题加要点列表。
func BuildMarkdown(deck *entity.Deck) (string, error) {
	var outline entity.Outline
	if err := json.Unmarshal(deck.Outline, &outline); err != nil {
		return "", apperr.Wrap(err, apperr.CodeExportFailed, "大纲数据损坏")
	}

	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(deck.Topic)
	sb.WriteString("\n")

	for _, slide := range outline.Slides {
		if slide.IsSectionDivider() {
			sb.WriteString("\n---\n\n## ")
			sb.WriteString(slide.Title)
			sb.WriteString("\n")
			for _, line := range slide.Content {
				sb.WriteString("\n*")
				sb.WriteString(line)
				sb.WriteString("*\n")
			}
			continue
		}

		fmt.Fprintf(&sb, "\n## %d. %s\n\n", slide.SlideNumber, slide.Title)
		for _, bullet := range slide.Content {
			sb.WriteString("- ")
			sb.WriteString(bullet)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// RenderHTML 将演示文稿大纲渲染为独立 HTML 页面
func RenderHTML(deck *entity.Deck) ([]byte, error) {
	markdown, err := BuildMarkdown(deck)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := markdownRenderer.Convert([]byte(markdown), &body); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeExportFailed, "Markdown 渲染失败")
	}
	page := fmt.Sprintf(htmlPageTemplate, htmlEscape(deck.Topic), body.String())
	return []byte(page), nil
}

func htmlEscape(s string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return replacer.Replace(s)
}
