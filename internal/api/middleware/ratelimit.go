package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ──────────────────────────────────────────────────────────────────────────────
// Per-client rate limiting
// ──────────────────────────────────────────────────────────────────────────────

// Game commands arrive in bursts (a trade screen fires several calls per
// click), so each client gets a refilling allowance rather than a hard
// per-second counter.

// clientState tracks one client's remaining allowance and last activity.
type clientState struct {
	allowance float64
	seen      time.Time
}

// limiter hands out tokens per client key, refilling at rps tokens per second
// up to a burst ceiling. Idle clients are swept out opportunistically on the
// request path; no background goroutine needed.
type limiter struct {
	mu        sync.Mutex
	clients   map[string]*clientState
	rps       float64
	burst     float64
	nextSweep time.Time
}

const (
	minBurst      = 10
	sweepInterval = 5 * time.Minute
	idleCutoff    = 10 * time.Minute
)

func newLimiter(rps int) *limiter {
	burst := float64(rps)
	if burst < minBurst {
		burst = minBurst
	}
	return &limiter{
		clients:   make(map[string]*clientState),
		rps:       float64(rps),
		burst:     burst,
		nextSweep: time.Now().Add(sweepInterval),
	}
}

// take deducts one token for the key, reporting whether the request may pass.
func (l *limiter) take(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.nextSweep) {
		for k, cs := range l.clients {
			if now.Sub(cs.seen) > idleCutoff {
				delete(l.clients, k)
			}
		}
		l.nextSweep = now.Add(sweepInterval)
	}

	cs := l.clients[key]
	if cs == nil {
		cs = &clientState{allowance: l.burst, seen: now}
		l.clients[key] = cs
	}

	cs.allowance += now.Sub(cs.seen).Seconds() * l.rps
	if cs.allowance > l.burst {
		cs.allowance = l.burst
	}
	cs.seen = now

	if cs.allowance < 1 {
		return false
	}
	cs.allowance--
	return true
}

// RateLimitMiddleware enforces a per-IP allowance of rps requests per second
// (with burst headroom). Clients over the limit get 429 Too Many Requests.
func RateLimitMiddleware(rps int) gin.HandlerFunc {
	l := newLimiter(rps)
	return func(c *gin.Context) {
		if !l.take(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "too many requests — please slow down",
				"code":    "ERR_RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}
