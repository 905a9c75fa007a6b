package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soap-note-server/internal/domain"
)

func rateLimitRouter(t *testing.T, cfg domain.RateLimitConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := logrustest.NewNullLogger()

	limiter, err := NewRateLimiter(cfg, logger)
	require.NoError(t, err)

	router := gin.New()
	// Identity is normally attached by the auth middleware; tests use a
	// header for direct control.
	router.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-UID"); uid != "" {
			c.Set(ContextKeyCallerUID, uid)
		}
	})
	router.Use(limiter.Limit())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func doRequest(router *gin.Engine, uid string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if uid != "" {
		req.Header.Set("X-Test-UID", uid)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_EnforcesBurst(t *testing.T) {
	router := rateLimitRouter(t, domain.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 0.001,
		Burst:             2,
		MaxCallers:        10,
	})

	assert.Equal(t, http.StatusOK, doRequest(router, "user-a"))
	assert.Equal(t, http.StatusOK, doRequest(router, "user-a"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "user-a"))
}

func TestRateLimiter_CallersAreIndependent(t *testing.T) {
	router := rateLimitRouter(t, domain.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 0.001,
		Burst:             1,
		MaxCallers:        10,
	})

	assert.Equal(t, http.StatusOK, doRequest(router, "user-a"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "user-a"))

	// A different caller still has a full bucket.
	assert.Equal(t, http.StatusOK, doRequest(router, "user-b"))
}

func TestRateLimiter_DisabledPassesEverything(t *testing.T) {
	router := rateLimitRouter(t, domain.RateLimitConfig{Enabled: false})

	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, doRequest(router, "user-a"))
	}
}
