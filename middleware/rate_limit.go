package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/cppla/matlog/config"
	"github.com/cppla/matlog/utils"
)

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
	mu      sync.Mutex
}

var (
	limiters   = map[string]*rateLimiter{}
	limitersMu sync.Mutex
)

// RateLimitMiddleware applies a simple IP based rate limiter using a token bucket.
func RateLimitMiddleware() gin.HandlerFunc {
	return RateLimit("ip", config.Get().RateLimitPerMinute, func(ctx *gin.Context) string {
		return ctx.ClientIP()
	})
}

// UserRateLimit limits authenticated users individually, falling back to the client IP.
func UserRateLimit(perMinute int) gin.HandlerFunc {
	return RateLimit("user", perMinute, func(ctx *gin.Context) string {
		if id, ok := CurrentUserID(ctx); ok {
			return id
		}
		return ctx.ClientIP()
	})
}

// RateLimit allows perMinute requests per key with a burst of half that.
// scope separates buckets of different limiters that see the same key.
func RateLimit(scope string, perMinute int, keyFn func(*gin.Context) string) gin.HandlerFunc {
	r := rate.Every(time.Minute / time.Duration(max(perMinute, 1)))
	burst := max(perMinute/2, 1)

	return func(ctx *gin.Context) {
		limiter := getLimiter(scope+":"+keyFn(ctx), r, burst)

		limiter.mu.Lock()
		allowed := limiter.limiter.Allow()
		limiter.mu.Unlock()

		if !allowed {
			utils.Error(ctx, 429, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}

func getLimiter(key string, limit rate.Limit, burst int) *rateLimiter {
	limitersMu.Lock()
	defer limitersMu.Unlock()

	cleanupExpiredLimitersLocked()

	if limiter, ok := limiters[key]; ok {
		limiter.expires = time.Now().Add(5 * time.Minute)
		return limiter
	}

	limiter := &rateLimiter{
		limiter: rate.NewLimiter(limit, burst),
		expires: time.Now().Add(5 * time.Minute),
	}
	limiters[key] = limiter
	return limiter
}

func cleanupExpiredLimitersLocked() {
	now := time.Now()
	for key, limiter := range limiters {
		if now.After(limiter.expires) {
			delete(limiters, key)
		}
	}
}
