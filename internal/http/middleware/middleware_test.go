package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type staticTokens map[string]int64

func (s staticTokens) Authenticate(token string) (int64, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, errors.New("unknown token")
}

func newAuthRouter(logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := &Auth{Tokens: staticTokens{"good": 42}}
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/me", auth.ValidateJWT, func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "request_id": RequestID(c)})
	})
	return r
}

func TestValidateJWT(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newAuthRouter(zap.New(core))

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Basic abc", http.StatusUnauthorized},
		{"Bearer ", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, tc.status, w.Code, tc.header)
	}

	ok := logs.FilterField(zap.Int64("user_id", 42)).All()
	require.Len(t, ok, 1)
	require.Equal(t, zap.InfoLevel, ok[0].Level)
	require.Equal(t, 4, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestRequestLoggerRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newAuthRouter(zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set("X-Request-ID", "trace-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "trace-123", w.Header().Get("X-Request-ID"))
	require.Contains(t, w.Body.String(), `"request_id":"trace-123"`)

	req = httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", maxRequestIDLen+1))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Len(t, w.Header().Get("X-Request-ID"), 36)

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 2)
	require.Equal(t, "unmatched", entries[1].ContextMap()["route"])
}
