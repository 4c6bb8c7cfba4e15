package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tejaspatil7903/backend/utils"
	"golang.org/x/time/rate"
)

// ipIdleTTL is how long a client's bucket is kept after its last request.
const ipIdleTTL = 10 * time.Minute

type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// ipLimiter keeps one token bucket per client IP and drops buckets that have
// been idle for longer than idle. Sweeps run at most once per idle period.
type ipLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rps       rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newIPLimiter(rps rate.Limit, burst int, idle time.Duration) *ipLimiter {
	return &ipLimiter{
		visitors:  make(map[string]*visitor),
		rps:       rps,
		burst:     burst,
		idle:      idle,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.lim.AllowN(now, 1)
}

func (l *ipLimiter) sweep(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) >= l.idle {
			delete(l.visitors, ip)
		}
	}
	l.lastSweep = now
}

func (l *ipLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// RateLimitPerIP limits each client IP to rps with the given burst.
func RateLimitPerIP(rps rate.Limit, burst int) gin.HandlerFunc {
	return rateLimit(newIPLimiter(rps, burst, ipIdleTTL))
}

func rateLimit(l *ipLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.allow(c.ClientIP()) {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		utils.WriteError(c, utils.NewApiError(utils.KindRateLimited, "Too many requests"))
	}
}
