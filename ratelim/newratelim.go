package ratelim

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"

	"reelops/utils"
)

const idleVisitorTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands each client IP its own token bucket.
type RateLimiter struct {
	visitors  map[string]*visitor
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

// NewRateLimiter allows perMinute requests per IP per minute. Zero or less
// disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{visitors: make(map[string]*visitor), now: time.Now}
	if perMinute > 0 {
		rl.limit = rate.Every(time.Minute / time.Duration(perMinute))
		rl.burst = perMinute
	}
	return rl
}

func (rl *RateLimiter) Enabled() bool { return rl != nil && rl.burst > 0 }

// Get or create a rate limiter for an IP
func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= time.Minute {
		rl.sweep(now)
	}

	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// sweep forgets IPs idle long enough to have refilled. Callers hold mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > idleVisitorTTL {
			delete(rl.visitors, ip)
		}
	}
	rl.lastSweep = now
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Limit rejects requests over the per-IP budget with 429.
func (rl *RateLimiter) Limit(next httprouter.Handle) httprouter.Handle {
	if !rl.Enabled() {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !rl.getLimiter(clientIP(r)).Allow() {
			utils.RespondWithError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next(w, r, ps)
	}
}
