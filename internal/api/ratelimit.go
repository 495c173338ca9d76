package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepTick = 5 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	last    time.Time
}

// userLimiter keeps one token bucket per authenticated user.
type userLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	visitors  map[uuid.UUID]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

func newUserLimiter(rps float64, burst int) *userLimiter {
	if burst < 1 {
		burst = 1
	}
	return &userLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		visitors: map[uuid.UUID]*limiterEntry{},
		now:      time.Now,
	}
}

func (l *userLimiter) allow(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > limiterSweepTick {
		for k, v := range l.visitors {
			if now.Sub(v.last) > limiterIdleTTL {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.visitors[id]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[id] = e
	}
	e.last = now
	return e.limiter.AllowN(now, 1)
}

// ProcessingRateLimit throttles the AI-backed endpoints per user. It must
// run after AuthMiddleware; a non-positive rps disables it.
func ProcessingRateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	l := newUserLimiter(rps, burst)
	return func(c *gin.Context) {
		id, ok := mustUserID(c)
		if !ok {
			return
		}
		if !l.allow(id) {
			abortWithError(c, http.StatusTooManyRequests, "Too many processing requests, try again later")
			return
		}
		c.Next()
	}
}
