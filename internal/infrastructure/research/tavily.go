// Package research 提供基于 Tavily 搜索 API 的网络调研实现
package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"neura-deck-api/internal/config"
	"neura-deck-api/pkg/metrics"
)

var tracer = otel.Tracer("research")

// 单条摘要与单次检索的截断上限
const (
	maxSnippetRunes   = 800
	maxSnippetsPerGet = 15
)

// TavilyClient Tavily 搜索客户端
type TavilyClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	maxResults int
}

// NewTavilyClient 创建 Tavily 客户端
func NewTavilyClient(cfg *config.TavilyConfig) *TavilyClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 8
	}
	return &TavilyClient{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		maxResults: maxResults,
	}
}

// searchRequest Tavily /search 请求体
type searchRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

// Search 执行一次检索，返回截断后的内容摘要
// kind 仅用于指标与追踪维度（topic/news/projects）。
func (c *TavilyClient) Search(ctx context.Context, query, kind string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "research.Search",
		trace.WithAttributes(
			attribute.String("research.kind", kind),
			attribute.String("research.query", query),
		))
	defer span.End()

	if c.apiKey == "" {
		metrics.ResearchFetchTotal.WithLabelValues(kind, "unconfigured").Inc()
		return nil, fmt.Errorf("tavily api key is not configured")
	}

	body, err := json.Marshal(searchRequest{
		Query:       query,
		MaxResults:  c.maxResults,
		SearchDepth: "advanced",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ResearchFetchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		metrics.ResearchFetchTotal.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("tavily search failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		span.RecordError(err)
		metrics.ResearchFetchTotal.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.ResearchFetchTotal.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("tavily returned status %d: %s", resp.StatusCode, truncateRunes(string(raw), 200))
	}

	snippets := extractSnippets(raw)
	metrics.ResearchFetchTotal.WithLabelValues(kind, "ok").Inc()
	span.SetAttributes(attribute.Int("research.snippet_count", len(snippets)))
	return snippets, nil
}

// extractSnippets 从响应体提取结果摘要
// 优先取 content，为空时退回 title；空结果跳过。
func extractSnippets(raw []byte) []string {
	results := gjson.GetBytes(raw, "results").Array()
	snippets := make([]string, 0, len(results))
	for _, r := range results {
		content := strings.TrimSpace(r.Get("content").String())
		if content == "" {
			content = strings.TrimSpace(r.Get("title").String())
		}
		if content == "" {
			continue
		}
		snippets = append(snippets, truncateRunes(content, maxSnippetRunes))
		if len(snippets) >= maxSnippetsPerGet {
			break
		}
	}
	return snippets
}

func truncateRunes(s string, maxRunes int) string {
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
