package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tayyabfareed009/newswatch/internal/config"
)

func TestRateLimiterRejectsBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(10)
	r := gin.New()
	r.Use(limiter.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))
	require.Contains(t, w.Body.String(), `"error":"rate_limited"`)
	require.Contains(t, w.Body.String(), `"success":false`)
}

func TestRateLimiterRefillsAndSweeps(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(60)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 6; i++ {
		_, ok := limiter.take("10.0.0.1")
		require.True(t, ok)
	}
	wait, ok := limiter.take("10.0.0.1")
	require.False(t, ok)
	require.Equal(t, time.Second, wait)

	_, ok = limiter.take("10.0.0.2")
	require.True(t, ok)

	now = now.Add(time.Second)
	_, ok = limiter.take("10.0.0.1")
	require.True(t, ok)

	now = now.Add(visitorIdleTTL + sweepInterval)
	_, ok = limiter.take("10.0.0.3")
	require.True(t, ok)
	require.Len(t, limiter.visitors, 1)
}

func TestDisabledRateLimiterPassesThrough(t *testing.T) {
	limiter := NewRateLimiter(0)
	require.Nil(t, limiter)

	r := gin.New()
	r.Use(limiter.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Config{
		CORSAllowedOrigins: []string{"https://app.newswatch.test/"},
		CORSAllowedMethods: []string{"GET", "POST"},
		CORSAllowedHeaders: []string{"Authorization"},
	}
	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.newswatch.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "https://app.newswatch.test", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
	require.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcard(t *testing.T) {
	gin.SetMode(gin.TestMode)

	anyOrigin := newCORSPolicy(config.Config{CORSAllowedOrigins: []string{"*"}})
	value, ok := anyOrigin.allowOrigin("https://reader.test")
	require.True(t, ok)
	require.Equal(t, "*", value)

	withCredentials := newCORSPolicy(config.Config{CORSAllowedOrigins: []string{"*"}, CORSAllowCredentials: true})
	value, ok = withCredentials.allowOrigin("https://reader.test")
	require.True(t, ok)
	require.Equal(t, "https://reader.test", value)
}
