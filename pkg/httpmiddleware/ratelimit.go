package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding window rate limiter.
type RateLimitConfig struct {
	// Max requests per window. Zero disables limiting.
	Max    int
	Window time.Duration
	// Key extracts the limit key from a request. Defaults to ClientIP.
	Key func(*http.Request) string
	// Skip exempts requests from limiting, e.g. safe methods.
	Skip func(*http.Request) bool
}

type window struct {
	prevCount float64
	currCount float64
	currStart time.Time
}

// Limiter is an in-memory sliding window counter keyed by client.
type Limiter struct {
	max     int
	window  time.Duration
	mu      sync.Mutex
	windows map[string]*window
}

// NewLimiter creates a Limiter allowing max events per window.
func NewLimiter(maxEvents int, w time.Duration) *Limiter {
	return &Limiter{
		max:     maxEvents,
		window:  w,
		windows: make(map[string]*window),
	}
}

// Allow records an event for key at now. It reports whether the event is
// within the limit, how many events remain and when the window resets.
func (l *Limiter) Allow(key string, now time.Time) (remaining int, resetAt time.Time, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, found := l.windows[key]
	if !found {
		w = &window{currStart: now.Truncate(l.window)}
		l.windows[key] = w
	}
	if since := now.Sub(w.currStart); since >= l.window {
		w.prevCount = w.currCount
		if since >= 2*l.window {
			w.prevCount = 0
		}
		w.currCount = 0
		w.currStart = now.Truncate(l.window)
	}

	// Previous window counts in proportion to its overlap with the sliding
	// window ending at now.
	overlap := 1 - now.Sub(w.currStart).Seconds()/l.window.Seconds()
	effective := w.prevCount*math.Max(overlap, 0) + w.currCount
	resetAt = w.currStart.Add(l.window)

	if effective >= float64(l.max) {
		return 0, resetAt, false
	}
	w.currCount++
	return max(int(float64(l.max)-effective-1), 0), resetAt, true
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Evict drops keys whose windows expired before now.
func (l *Limiter) Evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		if now.Sub(w.currStart) >= 2*l.window {
			delete(l.windows, key)
		}
	}
}

// Run evicts expired keys every two windows until ctx is done.
func (l *Limiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(2 * l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			l.Evict(now)
		}
	}
}

// RateLimit enforces cfg with limiter. Limited requests get 429 with a JSON
// body and Retry-After; every checked response carries X-RateLimit headers.
func RateLimit(cfg RateLimitConfig, limiter *Limiter) Middleware {
	key := cfg.Key
	if key == nil {
		key = ClientIP
	}
	limit := strconv.Itoa(cfg.Max)

	return func(next http.Handler) http.Handler {
		if cfg.Max <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			remaining, resetAt, ok := limiter.Allow(key(r), time.Now())
			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !ok {
				retry := max(time.Until(resetAt), 0)
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
				WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SafeMethod reports whether r uses GET, HEAD or OPTIONS.
func SafeMethod(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// ClientIP returns the first X-Forwarded-For address, then X-Real-IP, then
// the host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
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
