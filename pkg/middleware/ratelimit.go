package middleware

import (
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP. Buckets idle for
// longer than idleTTL are swept lazily while handling requests.
type IPRateLimiter struct {
	limiters  map[string]*clientLimiter
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewIPRateLimiter allows requests per window for each client, with the
// full allowance available as a burst.
func NewIPRateLimiter(requests int, window time.Duration) *IPRateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	return &IPRateLimiter{
		limiters:  make(map[string]*clientLimiter),
		limit:     rate.Limit(float64(requests) / window.Seconds()),
		burst:     requests,
		idleTTL:   2 * window,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (irl *IPRateLimiter) Allow(ip string) bool {
	irl.mu.Lock()
	defer irl.mu.Unlock()

	now := irl.now()
	irl.sweep(now)

	cl, exists := irl.limiters[ip]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(irl.limit, irl.burst)}
		irl.limiters[ip] = cl
	}
	cl.lastSeen = now

	return cl.limiter.AllowN(now, 1)
}

func (irl *IPRateLimiter) sweep(now time.Time) {
	if now.Sub(irl.lastSweep) < irl.idleTTL {
		return
	}
	for ip, cl := range irl.limiters {
		if now.Sub(cl.lastSeen) > irl.idleTTL {
			delete(irl.limiters, ip)
		}
	}
	irl.lastSweep = now
}

func (irl *IPRateLimiter) retryAfter() float64 {
	if irl.limit <= 0 {
		return 0
	}
	return math.Ceil(1 / float64(irl.limit))
}

func (irl *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !irl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": irl.retryAfter(),
			})
			return
		}

		c.Next()
	}
}
