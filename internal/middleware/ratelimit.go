package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/response"
)

// RateLimiter is a per-client token bucket. Each client gets limit tokens
// per window; a request spends one.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*bucket
	limit   int
	window  time.Duration
	now     func() time.Time
}

type bucket struct {
	tokens   int
	refilled time.Time
}

// NewRateLimiter creates a RateLimiter allowing limit requests per window.
// Idle clients are forgotten until ctx is cancelled.
func NewRateLimiter(ctx context.Context, limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}

	go func() {
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.cleanup()
			}
		}
	}()

	return rl
}

// Middleware returns a Gin middleware that rate-limits requests by client IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if wait, ok := rl.take(c.ClientIP()); !ok {
			c.Header("Retry-After", retryAfter(wait))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

// take spends one token of key. When none is left it returns how long
// until the bucket refills.
func (rl *RateLimiter) take(key string) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.clients[key]
	if !ok || now.Sub(b.refilled) >= rl.window {
		b = &bucket{tokens: rl.limit, refilled: now}
		rl.clients[key] = b
	}

	if b.tokens <= 0 {
		return b.refilled.Add(rl.window).Sub(now), false
	}
	b.tokens--
	return 0, true
}

// retryAfter renders wait in whole seconds, rounded up so a client never
// sees 0 while still blocked.
func retryAfter(wait time.Duration) string {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, b := range rl.clients {
		if now.Sub(b.refilled) > 2*rl.window {
			delete(rl.clients, key)
		}
	}
}
