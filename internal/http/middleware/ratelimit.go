package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per key. Buckets untouched for maxAge
// are evicted at most once per minute.
type RateLimiter struct {
	limit  rate.Limit
	burst  int
	maxAge time.Duration
	now    func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewRateLimiter creates a keyed limiter.
func NewRateLimiter(reqPerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(reqPerSec),
		burst:   burst,
		maxAge:  10 * time.Minute,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow takes a token from key's bucket.
func (l *RateLimiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now

	if now.Sub(l.lastSweep) > time.Minute {
		for k, other := range l.buckets {
			if now.Sub(other.seen) > l.maxAge {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	return b.limiter.AllowN(now, 1)
}

// Len reports how many buckets are tracked.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// wrap guards next with a limiter keyed by keyFunc. An empty key is not limited.
func (l *RateLimiter) wrap(next http.Handler, keyFunc func(*http.Request) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := keyFunc(r); key != "" && !l.Allow(key) {
			writeRateLimitError(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IPRateLimit keys on the client IP.
func IPRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return limiter.wrap(next, realIPFromRequest)
	}
}

// LoginRateLimit keys sign-in attempts on the client IP and the submitted email.
func LoginRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return limiter.wrap(next, func(r *http.Request) string {
			email := strings.ToLower(strings.TrimSpace(r.PostFormValue("email")))
			return realIPFromRequest(r) + "|" + email
		})
	}
}

// UserRateLimit keys on the signed-in staff id. Anonymous requests pass.
func UserRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return limiter.wrap(next, func(r *http.Request) string {
			return GetSubject(r.Context())
		})
	}
}

func realIPFromRequest(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitError answers page loads with HTML and fetches with the JSON
// envelope.
func writeRateLimitError(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "1")
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("<!doctype html><title>Terlalu banyak permintaan</title><h1>Terlalu banyak permintaan, coba lagi sebentar.</h1>"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    "RATE_LIMIT",
			"message": "too many requests, try again shortly",
		},
	})
}
