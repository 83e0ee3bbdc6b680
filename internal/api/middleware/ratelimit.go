package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the per-client limiter table. A client that falls
// out of it simply starts again with a full bucket.
const maxTrackedClients = 10_000

// RateLimiter applies a token bucket per client IP.
type RateLimiter struct {
	limiters *lru.Cache[string, *rate.Limiter]
	rps      rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter allowing rps requests per second per
// client with bursts of up to burst requests.
func NewRateLimiter(rps float64, burst int) (*RateLimiter, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rate limiter needs positive rps and burst, got %v and %d", rps, burst)
	}
	limiters, err := lru.New[string, *rate.Limiter](maxTrackedClients)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{
		limiters: limiters,
		rps:      rate.Limit(rps),
		burst:    burst,
	}, nil
}

// getLimiter returns the limiter for key, creating it on first use.
// PeekOrAdd keeps concurrent first requests from the same client on one
// bucket.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Get(key); ok {
		return limiter
	}
	limiter := rate.NewLimiter(rl.rps, rl.burst)
	if prev, ok, _ := rl.limiters.PeekOrAdd(key, limiter); ok {
		return prev
	}
	return limiter
}

// Middleware returns a Gin middleware function for rate limiting
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    "RATE_LIMITED",
				"message": "too many requests, please try again later",
			})
			return
		}
		c.Next()
	}
}
