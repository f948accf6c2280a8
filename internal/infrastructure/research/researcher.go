package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"neura-deck-api/pkg/logger"
)

// Result 一次调研的产出
// Text 为供提示词消费的分节全文；MarketBullets/SuccessBullets
// 为可注入对应幻灯片的原始摘要条目。
type Result struct {
	Text           string
	MarketBullets  []string
	SuccessBullets []string
}

// Researcher 组合多路检索构建调研文本
// 主题概览、市场新闻与案例三路并发检索，失败的分路只记日志不阻断整体，
// 全部失败时返回空文本由上游提示词自行兜底。
type Researcher struct {
	client *TavilyClient
}

// NewResearcher 创建调研器
func NewResearcher(client *TavilyClient) *Researcher {
	return &Researcher{client: client}
}

// Gather 并发抓取三路检索并拼接为分节文本
func (r *Researcher) Gather(ctx context.Context, topic string) Result {
	log := logger.FromContext(ctx)
	year := time.Now().Year()
	short := truncateRunes(strings.TrimSpace(topic), 80)

	var overview, news, cases []string
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		snippets, err := r.client.Search(gctx, fmt.Sprintf("%s overview %d", short, year), "topic")
		if err != nil {
			log.Warn("主题概览检索失败", "error", err)
			return nil
		}
		overview = snippets
		return nil
	})
	g.Go(func() error {
		snippets, err := r.client.Search(gctx, fmt.Sprintf("%s market analysis financials %d", short, year), "news")
		if err != nil {
			log.Warn("市场新闻检索失败", "error", err)
			return nil
		}
		news = snippets
		return nil
	})
	g.Go(func() error {
		snippets, err := r.client.Search(gctx, fmt.Sprintf("%s case study ROI results", short), "projects")
		if err != nil {
			log.Warn("案例检索失败", "error", err)
			return nil
		}
		cases = snippets
		return nil
	})

	// 分路自行吞掉错误，这里只会因上下文取消而报错
	if err := g.Wait(); err != nil {
		log.Warn("调研汇聚中断", "error", err)
	}

	var sb strings.Builder
	appendSection(&sb, "TOPIC OVERVIEW", overview)
	appendSection(&sb, "MARKET & NEWS", news)
	appendSection(&sb, "CASE STUDIES", cases)

	return Result{
		Text:           strings.TrimSpace(sb.String()),
		MarketBullets:  news,
		SuccessBullets: cases,
	}
}

func appendSection(sb *strings.Builder, header string, snippets []string) {
	if len(snippets) == 0 {
		return
	}
	if sb.Len() > 0 {
		sb.WriteString("\n\n")
	}
	sb.WriteString(header)
	sb.WriteString(":\n")
	sb.WriteString(strings.Join(snippets, "\n\n"))
}
