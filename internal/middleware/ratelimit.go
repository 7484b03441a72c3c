package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tayyabfareed009/newswatch/internal/gateway"
)

const (
	visitorIdleTTL = 5 * time.Minute
	sweepInterval  = time.Minute
)

// RateLimiter throttles each client IP with its own token bucket. A nil limiter lets every
// request through.
type RateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows requestsPerMinute per client with a burst of a tenth of that.
// A non-positive budget disables limiting.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return &RateLimiter{
		limit:    rate.Limit(float64(requestsPerMinute) / 60),
		burst:    max(requestsPerMinute/10, 1),
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

// Handler answers 429 with the error envelope and a Retry-After hint once the bucket is empty.
func (r *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r == nil {
			c.Next()
			return
		}
		if wait, ok := r.take(c.ClientIP()); !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gateway.Envelope{
				Error:   gateway.CodeRateLimited,
				Message: "Too many requests. Please slow down.",
			})
			return
		}
		c.Next()
	}
}

// take consumes a token for key, or reports how long until one is available.
func (r *RateLimiter) take(key string) (time.Duration, bool) {
	now := r.now()

	r.mu.Lock()
	v, ok := r.visitors[key]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(r.limit, r.burst)}
		r.visitors[key] = v
	}
	v.lastSeen = now
	if now.Sub(r.lastSweep) >= sweepInterval {
		r.sweepLocked(now)
	}
	r.mu.Unlock()

	res := v.bucket.ReserveN(now, 1)
	if !res.OK() {
		return time.Minute, false
	}
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return max(wait, time.Second), false
	}
	return 0, true
}

func (r *RateLimiter) sweepLocked(now time.Time) {
	for key, v := range r.visitors {
		if now.Sub(v.lastSeen) > visitorIdleTTL {
			delete(r.visitors, key)
		}
	}
	r.lastSweep = now
}
