package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TheVish04/CAprep/internal/core/port"
	"github.com/TheVish04/CAprep/internal/infra/logger"
)

// RateLimiter applies a per-IP sliding window limit in front of an
// endpoint. Store failures fail open: a broken limiter backend must not
// take the endpoint down with it.
func RateLimiter(store port.RateLimitStore, name string, maxAttempts int, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now()
		key := fmt.Sprintf("ip:%s:%s", name, c.ClientIP())
		ctx := c.Request.Context()

		if err := store.TrimWindow(ctx, key, now.Add(-window)); err != nil {
			log.Error("rate limiter trim failed", zap.Error(err))
			c.Next()
			return
		}

		count, err := store.CountAttempts(ctx, key)
		if err != nil {
			log.Error("rate limiter count failed", zap.Error(err))
			c.Next()
			return
		}

		if count >= maxAttempts {
			retryAfter := window
			if oldest, err := store.OldestAttempt(ctx, key); err == nil && !oldest.IsZero() {
				retryAfter = oldest.Add(window).Sub(now)
				if retryAfter < 0 {
					retryAfter = 0
				}
			}

			log.Warn("ip rate limit exceeded",
				zap.String("limiter", name),
				zap.String("ip", logger.MaskIP(c.ClientIP())),
			)
			c.Header("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": "Too many requests, try again later",
				},
			})
			return
		}

		if err := store.RecordAttempt(ctx, key, now, window); err != nil {
			log.Error("rate limiter record failed", zap.Error(err))
		}

		c.Next()
	}
}
