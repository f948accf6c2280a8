package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"neura-deck-api/internal/infrastructure/persistence/postgres"
	"neura-deck-api/internal/infrastructure/persistence/redis"
)

// HealthHandler 健康与就绪检查处理器
type HealthHandler struct {
	pg    *postgres.Client
	redis *redis.Client
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(pg *postgres.Client, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{
		pg:    pg,
		redis: redisClient,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// probe 执行一次依赖探活并记录耗时，返回依赖是否可用
func probe(ctx context.Context, check func(context.Context) error) (*readinessCheck, bool) {
	if check == nil {
		return &readinessCheck{Status: "missing", Error: "client not configured"}, false
	}

	start := time.Now()
	err := check(ctx)
	result := &readinessCheck{
		Status:    "ok",
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Status = "error"
		result.Error = err.Error()
		return result, false
	}
	return result, true
}

// Health 健康检查接口
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Live 存活检查接口
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready 就绪检查接口
// Postgres 与 Redis 任一不可用即返回 503。
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	var pgCheck, redisCheck func(context.Context) error
	if h != nil && h.pg != nil {
		pgCheck = h.pg.HealthCheck
	}
	if h != nil && h.redis != nil {
		redisCheck = h.redis.HealthCheck
	}

	resp := readinessResponse{
		Status: "ok",
		Checks: map[string]*readinessCheck{},
	}
	ready := true

	result, ok := probe(ctx, pgCheck)
	resp.Checks["postgres"] = result
	ready = ready && ok

	result, ok = probe(ctx, redisCheck)
	resp.Checks["redis"] = result
	ready = ready && ok

	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
