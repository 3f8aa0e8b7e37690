package httpmiddleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the per-client sliding window rate limiter.
type RateLimitConfig struct {
	// Max requests allowed per window.
	Max int
	// Window is the sliding window length.
	Window time.Duration
	// KeyFunc maps a request to a rate limit key. Defaults to the client IP.
	KeyFunc func(*http.Request) string
}

// client holds the counts of the current and previous fixed windows for one
// key. The sliding count interpolates between them.
type client struct {
	windowStart time.Time
	count       int
	prevCount   int
}

type limiter struct {
	max     int
	window  time.Duration
	keyFunc func(*http.Request) string

	mu      sync.Mutex
	clients map[string]*client
}

func newLimiter(cfg RateLimitConfig) *limiter {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = clientIP
	}
	return &limiter{
		max:     cfg.Max,
		window:  cfg.Window,
		keyFunc: keyFunc,
		clients: make(map[string]*client),
	}
}

// take records a request for key and reports whether it is within the limit,
// along with the remaining budget and when the current window resets.
func (l *limiter) take(key string, now time.Time) (allowed bool, remaining int, resetAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[key]
	if !ok {
		c = &client{windowStart: now.Truncate(l.window)}
		l.clients[key] = c
	}

	// Rotate fixed windows that have elapsed.
	switch elapsed := now.Sub(c.windowStart); {
	case elapsed >= 2*l.window:
		c.windowStart = now.Truncate(l.window)
		c.prevCount = 0
		c.count = 0
	case elapsed >= l.window:
		c.windowStart = c.windowStart.Add(l.window)
		c.prevCount = c.count
		c.count = 0
	}

	// Weight the previous window by its remaining overlap with the sliding
	// window ending now.
	frac := 1 - now.Sub(c.windowStart).Seconds()/l.window.Seconds()
	if frac < 0 {
		frac = 0
	}
	sliding := float64(c.prevCount)*frac + float64(c.count)

	resetAt = c.windowStart.Add(l.window)
	if sliding >= float64(l.max) {
		return false, 0, resetAt
	}

	c.count++
	remaining = l.max - int(sliding) - 1
	if remaining < 0 {
		remaining = 0
	}
	return true, remaining, resetAt
}

// evictStale drops clients whose windows have fully expired.
func (l *limiter) evictStale(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, c := range l.clients {
		if now.Sub(c.windowStart) >= 2*l.window {
			delete(l.clients, key)
		}
	}
}

// RateLimit returns a sliding window rate limit middleware. Responses carry
// X-RateLimit-Limit, X-RateLimit-Remaining, and X-RateLimit-Reset headers;
// requests over the limit get 429 with a JSON body. Stale per-client state
// is never evicted; use RateLimitWithCleanup for long-running servers.
func RateLimit(cfg RateLimitConfig) Middleware {
	return limitMiddleware(newLimiter(cfg))
}

// RateLimitWithCleanup is RateLimit plus a background goroutine that evicts
// expired client entries until ctx is cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	go func() {
		ticker := time.NewTicker(2 * l.window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.evictStale(now)
			}
		}
	}()
	return limitMiddleware(l)
}

func limitMiddleware(l *limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, resetAt := l.take(l.keyFunc(r), time.Now())

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !allowed {
				retryAfter := int(time.Until(resetAt).Seconds()) + 1
				if retryAfter < 0 {
					retryAfter = 0
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"code":    429,
					"message": "rate limit exceeded",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the caller's IP, preferring proxy headers over the raw
// remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// The first entry is the originating client.
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
