package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tanaestate/portal-backend/internal/auth"
)

// RateLimiter implements a simple in-memory sliding-window rate limiter
type RateLimiter struct {
	requests map[string][]time.Time
	mutex    sync.Mutex
	limit    int
	window   time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow checks if a request from the given key should be allowed. The error
// return exists so callers can treat limiter failures as allow; the in-memory
// limiter never fails.
func (rl *RateLimiter) Allow(key string) (bool, error) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	valid := rl.requests[key][:0]
	for _, reqTime := range rl.requests[key] {
		if reqTime.After(cutoff) {
			valid = append(valid, reqTime)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false, nil
	}

	rl.requests[key] = append(valid, now)
	return true, nil
}

// Window returns the limiter's window, used to advertise retry_after.
func (rl *RateLimiter) Window() time.Duration {
	return rl.window
}

// RateLimit creates a per-user rate limiting middleware. Requests without an
// authenticated user fall back to the client IP as the key.
func RateLimit(limiter *RateLimiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, ok := auth.UserIDFromContext(c); ok {
			key = userID.String()
		}

		allowed, err := limiter.Allow(key)
		if err != nil {
			// Fail open so a broken limiter never blocks traffic
			logger.Warn("rate limiter error, allowing request", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			logger.Warn("rate limit exceeded", zap.String("key", key))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many verification requests, please try again later",
				"retry_after": int(limiter.Window().Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
