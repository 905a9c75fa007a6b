package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/soap-note-server/internal/domain"
)

// RateLimiter enforces a per-caller request rate before the pipeline
// runs. Limiter state lives in an LRU cache keyed by caller UID (or
// client IP for unauthenticated requests) so abandoned callers age out
// instead of leaking.
type RateLimiter struct {
	cfg      domain.RateLimitConfig
	limiters *lru.Cache[string, *rate.Limiter]
	logger   *logrus.Logger
}

// NewRateLimiter creates a new per-caller rate limiter.
func NewRateLimiter(cfg domain.RateLimitConfig, logger *logrus.Logger) (*RateLimiter, error) {
	size := cfg.MaxCallers
	if size <= 0 {
		size = 1000
	}
	limiters, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{cfg: cfg, limiters: limiters, logger: logger}, nil
}

// Limit rejects requests exceeding the caller's rate with 429.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.cfg.Enabled {
			c.Next()
			return
		}

		key := c.GetString(ContextKeyCallerUID)
		if key == "" {
			key = c.ClientIP()
		}

		limiter := rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)
		if existing, ok, _ := rl.limiters.PeekOrAdd(key, limiter); ok {
			limiter = existing
		}

		if !limiter.Allow() {
			rl.logger.WithField("caller", key).Warn("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":          "Rate limit exceeded",
				"correlation_id": c.GetString("correlation_id"),
			})
			return
		}

		c.Next()
	}
}
