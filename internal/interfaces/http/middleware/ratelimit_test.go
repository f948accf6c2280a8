package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubLimiter struct {
	allowAfter int // 前 N 次放行，之后拒绝
	calls      int
	err        error
	lastKey    string
	lastLimit  int
	lastWindow time.Duration
}

func (s *stubLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	s.calls++
	s.lastKey = key
	s.lastLimit = limit
	s.lastWindow = window
	if s.err != nil {
		return false, s.err
	}
	return s.calls <= s.allowAfter, nil
}

func newRateLimitRouter(cfg RateLimitConfig, limiter RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/decks", RateLimit(cfg, limiter), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})
	return r
}

func doPost(r *gin.Engine) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/decks", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitWindow(t *testing.T) {
	limiter := &stubLimiter{allowAfter: 2}
	r := newRateLimitRouter(RateLimitConfig{Enabled: true, RequestsPerMinute: 2}, limiter)

	assert.Equal(t, http.StatusAccepted, doPost(r))
	assert.Equal(t, http.StatusAccepted, doPost(r))
	assert.Equal(t, http.StatusTooManyRequests, doPost(r))

	// 限流键按客户端与端点区分，窗口为一分钟
	assert.Equal(t, 2, limiter.lastLimit)
	assert.Equal(t, time.Minute, limiter.lastWindow)
	assert.Contains(t, limiter.lastKey, "/v1/decks")
}

func TestRateLimitDisabled(t *testing.T) {
	limiter := &stubLimiter{}
	r := newRateLimitRouter(RateLimitConfig{Enabled: false}, limiter)

	assert.Equal(t, http.StatusAccepted, doPost(r))
	assert.Zero(t, limiter.calls)
}

func TestRateLimitFailsOpen(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("redis down")}
	r := newRateLimitRouter(RateLimitConfig{Enabled: true, RequestsPerMinute: 1}, limiter)

	// 限流器故障时放行
	assert.Equal(t, http.StatusAccepted, doPost(r))
}

func TestRateLimitDefaultLimit(t *testing.T) {
	limiter := &stubLimiter{allowAfter: 100}
	r := newRateLimitRouter(RateLimitConfig{Enabled: true}, limiter)

	assert.Equal(t, http.StatusAccepted, doPost(r))
	assert.Equal(t, 30, limiter.lastLimit)
}
