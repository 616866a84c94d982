package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/portfolio-chat/internal/common"
	"golang.org/x/time/rate"
)

// limiters idle longer than this are dropped when the table is pruned
const limiterIdle = 10 * time.Minute

type visitorLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per visitor.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitorLimiter
	limit    rate.Limit
	burst    int
	maxSize  int
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*visitorLimiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		maxSize:  10000,
	}
}

func (r *RateLimiter) Allow(visitorID string) bool {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.limiters[visitorID]
	if !ok {
		if len(r.limiters) >= r.maxSize {
			r.pruneLocked(now)
		}
		v = &visitorLimiter{lim: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[visitorID] = v
	}
	v.lastSeen = now
	return v.lim.AllowN(now, 1)
}

func (r *RateLimiter) pruneLocked(now time.Time) {
	for id, v := range r.limiters {
		if now.Sub(v.lastSeen) > limiterIdle {
			delete(r.limiters, id)
		}
	}
}

// Middleware limits requests per visitor; it must run after VisitorAuth.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := VisitorID(c)
		if !r.Allow(id) {
			common.Fail(c, http.StatusTooManyRequests, 42900, "too many messages, slow down")
			return
		}
		c.Next()
	}
}
