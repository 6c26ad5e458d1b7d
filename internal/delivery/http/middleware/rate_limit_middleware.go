package middleware

import (
	"net/http"
	"sync"
	"time"

	"psych-booking-engine/pkg/response"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles booking writes per authenticated user.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
}

func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	if burst <= 0 {
		burst = 5
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		idleTTL:  10 * time.Minute,
	}
}

func (m *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Drop idle limiters so the map does not grow with every user ever seen.
	for k, e := range m.limiters {
		if now.Sub(e.lastSeen) > m.idleTTL {
			delete(m.limiters, k)
		}
	}

	e, ok := m.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Handle must run after Authenticate; anonymous requests are keyed by remote address.
func (m *RateLimiter) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		key := r.RemoteAddr
		if userID, ok := GetUserIDFromContext(r.Context()); ok {
			key = userID.String()
		}

		if !m.limiterFor(key, time.Now()).Allow() {
			w.Header().Set("Retry-After", "60")
			response.TooManyRequests(w, "Too many booking requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}
