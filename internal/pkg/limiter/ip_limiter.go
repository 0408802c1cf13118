/*
Package limiter provides per-IP request rate limiting.

It keeps one token bucket (rate.Limiter) per client IP and periodically removes
buckets that have refilled completely, so idle IPs do not accumulate.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/errs"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/logx"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/resp"
)

// cleanupInterval is how often idle limiters are swept.
const cleanupInterval = 3 * time.Minute

// IPRateLimiter tracks a token-bucket limiter per client IP address.
type IPRateLimiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter

	// r and b are the refill rate and burst size applied to every bucket.
	r rate.Limit
	b int
}

// NewIPRateLimiter returns a limiter with the given rate and burst and starts
// the background sweep of idle buckets.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	l := &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go l.sweepIdle()

	return l
}

// GetLimiter returns the bucket for ip, creating it on first sight.
func (l *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limits[ip]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		limiter, exists = l.limits[ip]
		if !exists {
			limiter = rate.NewLimiter(l.r, l.b)
			l.limits[ip] = limiter
		}
		l.mu.Unlock()
	}

	return limiter
}

// sweepIdle drops buckets whose tokens have fully refilled; those IPs have not
// sent a request in at least a full refill window.
func (l *IPRateLimiter) sweepIdle() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		removed := 0
		for ip, limiter := range l.limits {
			if limiter.TokensAt(time.Now()) >= float64(limiter.Burst()) {
				delete(l.limits, ip)
				removed++
			}
		}
		remaining := len(l.limits)
		l.mu.Unlock()

		logx.Info("Rate limiter sweep finished", "removed", removed, "remaining", remaining)
	}
}

// ClientIP extracts the bare IP from an http.Request RemoteAddr.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	if ip == "" {
		ip = "unknown_ip"
	}

	return ip
}

// Middleware rejects requests over the limit with HTTP 429.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.GetLimiter(ClientIP(r)).Allow() {
			resp.Error(w, r, errs.New(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}
