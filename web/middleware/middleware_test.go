package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSessionMiddlewareIssuesCookie(t *testing.T) {
	r := gin.New()
	r.Use(SessionMiddleware())
	var seen uuid.UUID
	r.GET("/", func(c *gin.Context) {
		seen, _ = SessionID(c)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEqual(t, uuid.Nil, seen)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Equal(t, seen.String(), cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	// Existing cookie is reused without a new Set-Cookie.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: seen.String()})
	w = httptest.NewRecorder()
	prev := seen
	r.ServeHTTP(w, req)
	assert.Equal(t, prev, seen)
	assert.Empty(t, w.Result().Cookies())
}

func TestSessionMiddlewareReplacesGarbageCookie(t *testing.T) {
	r := gin.New()
	r.Use(SessionMiddleware())
	var seen uuid.UUID
	r.GET("/", func(c *gin.Context) { seen, _ = SessionID(c) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "not-a-uuid"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.NotEqual(t, uuid.Nil, seen)
	assert.Len(t, w.Result().Cookies(), 1)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewSessionRateLimiter(RateLimiterConfig{MessagesPerMinute: 1, BurstSize: 2}, zap.NewNop())
	defer limiter.Stop()

	r := gin.New()
	r.Use(LoggerMiddleware(zap.NewNop()), SessionMiddleware())
	r.POST("/messages", RateLimitMiddleware(limiter), func(c *gin.Context) { c.Status(http.StatusAccepted) })

	id := uuid.New()
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/messages", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: id.String()})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusAccepted, send().Code)
	assert.Equal(t, http.StatusAccepted, send().Code)
	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
}

func TestRateLimitMiddlewareHTMXGetsNotice(t *testing.T) {
	limiter := NewSessionRateLimiter(RateLimiterConfig{MessagesPerMinute: 1, BurstSize: 1}, zap.NewNop())
	defer limiter.Stop()

	r := gin.New()
	r.Use(SessionMiddleware())
	r.POST("/messages", RateLimitMiddleware(limiter), func(c *gin.Context) { c.Status(http.StatusAccepted) })

	id := uuid.New()
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/messages", nil)
		req.Header.Set("HX-Request", "true")
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: id.String()})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusAccepted, send().Code)
	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "#notice", w.Header().Get("HX-Retarget"))
	assert.Equal(t, "innerHTML", w.Header().Get("HX-Reswap"))
	assert.Contains(t, w.Body.String(), `class="error-box"`)
	assert.NotContains(t, w.Body.String(), `"error"`)
}

func TestRateLimiterCleanupDropsIdleBuckets(t *testing.T) {
	limiter := NewSessionRateLimiter(RateLimiterConfig{MessagesPerMinute: 10, BurstSize: 1, IdleAfter: time.Minute}, nil)
	defer limiter.Stop()

	limiter.AllowMessage(uuid.New())
	assert.Equal(t, 0, limiter.cleanup(time.Now()))
	assert.Equal(t, 1, limiter.cleanup(time.Now().Add(2*time.Minute)))
}
