package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig bounds lead submissions per client IP with a token bucket:
// Burst tokens, refilled one at a time every Refill.
type RateLimitConfig struct {
	Burst  int           `env:"INTAKE_RATE_BURST" envDefault:"5"`
	Refill time.Duration `env:"INTAKE_RATE_REFILL" envDefault:"1m"`
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// RateLimiter is an in-process token bucket keyed by client IP.
type RateLimiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewRateLimiter returns nil when cfg disables limiting.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Burst <= 0 || cfg.Refill <= 0 {
		return nil
	}
	return &RateLimiter{cfg: cfg, now: time.Now, buckets: make(map[string]*bucket)}
}

// allow takes a token for key and reports how long until the next one
// when none is left.
func (l *RateLimiter) allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.cfg.Burst, lastRefill: now}
		l.buckets[key] = b
	}

	if n := int(now.Sub(b.lastRefill) / l.cfg.Refill); n > 0 {
		b.tokens = min(b.tokens+n, l.cfg.Burst)
		b.lastRefill = b.lastRefill.Add(time.Duration(n) * l.cfg.Refill)
	}

	if b.tokens == 0 {
		return false, b.lastRefill.Add(l.cfg.Refill).Sub(now)
	}
	b.tokens--
	return true, 0
}

// sweep drops buckets that have been full for a while.
func (l *RateLimiter) sweep(now time.Time) {
	full := time.Duration(l.cfg.Burst) * l.cfg.Refill
	if now.Sub(l.lastSweep) < full {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.lastRefill) > full {
			delete(l.buckets, key)
		}
	}
}

// Middleware answers 429 once the caller's bucket is empty.
// A nil limiter lets everything through.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := l.allow(ClientIP(r))
		if !ok {
			secs := int((wait + time.Second - 1) / time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many submissions, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the first valid address from X-Forwarded-For, then
// X-Real-IP, then the connection's remote address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for part := range strings.SplitSeq(fwd, ",") {
			if ip := parseIP(part); ip != "" {
				return ip
			}
		}
	}
	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}
