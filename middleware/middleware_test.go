package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGetClientIP(t *testing.T) {
	cases := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded first hop", map[string]string{"X-Forwarded-For": " 1.2.3.4 , 10.0.0.1"}, "9.9.9.9:1", "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": "5.6.7.8"}, "9.9.9.9:1", "5.6.7.8"},
		{"remote with port", nil, "9.9.9.9:1234", "9.9.9.9"},
		{"remote bare", nil, "9.9.9.9", "9.9.9.9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = tc.remote
			for k, v := range tc.header {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, getClientIP(c))
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2, zap.NewNop()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", ip)
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit("1.1.1.1"))
	assert.Equal(t, http.StatusOK, hit("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("1.1.1.1"))
	assert.Equal(t, http.StatusOK, hit("2.2.2.2"), "buckets are per IP")
}

func TestRateLimiterStoreEvictsIdle(t *testing.T) {
	now := time.Date(2025, 9, 3, 10, 0, 0, 0, time.UTC)
	store := newRateLimiterStore(1)
	store.now = func() time.Time { return now }

	first := store.getLimiter("1.1.1.1")
	assert.Same(t, first, store.getLimiter("1.1.1.1"))

	now = now.Add(limiterIdleTTL + time.Second)
	store.getLimiter("2.2.2.2")
	assert.NotContains(t, store.limiters, "1.1.1.1")
	assert.NotSame(t, first, store.getLimiter("1.1.1.1"))
}

func TestRateLimiterStoreSweepsOncePerInterval(t *testing.T) {
	now := time.Date(2025, 9, 3, 10, 0, 0, 0, time.UTC)
	store := newRateLimiterStore(1)
	store.now = func() time.Time { return now }

	store.getLimiter("1.1.1.1")
	now = now.Add(limiterSweepEvery / 2)
	store.getLimiter("2.2.2.2")

	// 1.1.1.1 is idle past the TTL but the last sweep is still recent.
	store.limiters["1.1.1.1"].lastSeen = now.Add(-limiterIdleTTL - time.Second)
	store.getLimiter("3.3.3.3")
	assert.Contains(t, store.limiters, "1.1.1.1")

	now = now.Add(limiterSweepEvery)
	store.getLimiter("3.3.3.3")
	assert.NotContains(t, store.limiters, "1.1.1.1")
	assert.Contains(t, store.limiters, "2.2.2.2")
	assert.Equal(t, now, store.lastSweep)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	var scoped any
	r.GET("/ok", func(c *gin.Context) {
		scoped, _ = c.Get("logger")
		c.Status(http.StatusOK)
	})
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	assert.IsType(t, &zap.Logger{}, scoped)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Request handled", entry.Message)
	assert.Equal(t, "req-1", entry.ContextMap()["request_id"])
	assert.EqualValues(t, http.StatusOK, entry.ContextMap()["status"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bad", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, "Request rejected", logs.All()[1].Message)
}
