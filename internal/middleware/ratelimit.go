package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/querydesk/querydesk/internal/models"
)

// staleAfter is how long an idle caller's bucket is kept.
const staleAfter = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds one token bucket per caller. Each bucket holds
// limitPerMinute tokens and refills at the same rate.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
}

func NewRateLimiter(limitPerMinute int) *RateLimiter {
	rl := &RateLimiter{buckets: make(map[string]*bucket), limit: limitPerMinute}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			rl.sweep(time.Now())
		}
	}()
	return rl
}

func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > staleAfter {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rl.limit)), rl.limit)}
		rl.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

// RateLimit allows limitPerMinute requests per API key, or per client address
// for anonymous callers. A non-positive limit disables limiting.
func RateLimit(limitPerMinute int, headerName string) func(http.Handler) http.Handler {
	if limitPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	rl := NewRateLimiter(limitPerMinute)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(headerName)
			if key == "" {
				key = clientIP(r.RemoteAddr)
			}

			lim := rl.limiter(key)
			res := lim.Reserve()
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limitPerMinute))

			if delay := res.Delay(); delay > 0 {
				res.Cancel()
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
				models.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(int(lim.Tokens()), 0)))
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. chi's RealIP runs first, so this
// is the forwarded address behind a trusted proxy.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
