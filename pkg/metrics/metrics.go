// Package metrics 提供 Prometheus 指标采集功能
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "neura_deck"

func counterVec(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func histogramVec(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
}

// HTTP 请求指标
var (
	HTTPRequestsTotal = counterVec("http", "requests_total",
		"Total number of HTTP requests", "method", "path", "status")

	HTTPRequestDuration = histogramVec("http", "request_duration_seconds",
		"HTTP request duration in seconds",
		[]float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		"method", "path")

	HTTPRequestSize = histogramVec("http", "request_size_bytes",
		"HTTP request size in bytes",
		prometheus.ExponentialBuckets(100, 10, 6),
		"method", "path")

	HTTPResponseSize = histogramVec("http", "response_size_bytes",
		"HTTP response size in bytes",
		prometheus.ExponentialBuckets(100, 10, 6),
		"method", "path")
)

// 演示文稿生成指标
var (
	DeckGenerationTotal = counterVec("deck", "generation_total",
		"Total number of deck generations", "template", "status")

	DeckGenerationDuration = histogramVec("deck", "generation_duration_seconds",
		"Deck generation duration in seconds",
		[]float64{1, 5, 10, 30, 60, 120, 300},
		"template")

	DeckSlideCount = histogramVec("deck", "slide_count",
		"Generated deck slide count",
		[]float64{2, 5, 8, 10, 12, 15, 19},
		"template")

	ActiveGenerations = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "deck",
		Name:      "active_generations",
		Help:      "Current number of in-flight deck generations",
	})
)

// 大纲解析与修复指标
var (
	// result: ok/malformed
	OutlineParseTotal = counterVec("outline", "parse_total",
		"Total number of outline parse attempts", "result")

	OutlineRepairTotal = counterVec("outline", "repair_total",
		"Total number of truncation repair attempts", "strategy", "result")

	OutlineDegenerateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outline",
		Name:      "degenerate_total",
		Help:      "Total number of outlines flagged as placeholder-dominated",
	})

	// reason: gateway/parse/empty
	OutlineFallbackTotal = counterVec("outline", "fallback_total",
		"Total number of fixed fallback outlines returned", "reason")
)

// LLM 调用指标
var (
	// type: prompt/completion
	LLMTokensUsed = counterVec("llm", "tokens_used_total",
		"Total tokens used for LLM calls", "provider", "model", "type")

	LLMCallDuration = histogramVec("llm", "call_duration_seconds",
		"LLM call duration in seconds",
		[]float64{1, 5, 10, 30, 60, 120},
		"provider", "model")

	LLMCallTotal = counterVec("llm", "call_total",
		"Total number of LLM calls", "provider", "model", "status")
)

// 网络检索指标
var (
	// kind: topic/news/projects
	ResearchFetchTotal = counterVec("research", "fetch_total",
		"Total number of web research fetches", "kind", "status")

	ResearchFetchDuration = histogramVec("research", "fetch_duration_seconds",
		"Web research fetch duration in seconds",
		[]float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		"kind")
)

// 消息队列指标
var (
	RedisStreamLag = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "redis",
		Name:      "stream_lag",
		Help:      "Redis stream consumer lag",
	}, []string{"stream", "consumer_group"})

	RedisStreamProcessed = counterVec("redis", "stream_processed_total",
		"Total number of Redis stream messages processed", "stream", "status")
)
