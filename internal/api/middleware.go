// Package api implements the callerid REST API using chi.
package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/starford/callerid/internal/metrics"
)

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through (disabled mode).
// If enabled is true, requests must carry a valid "Authorization: Bearer <token>" header.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware limits each client address to one request per interval
// with bursts of up to burst. Limiters are kept in an expiring LRU so idle
// clients are forgotten.
func RateLimitMiddleware(interval time.Duration, burst, cacheSize int, ttl time.Duration) func(http.Handler) http.Handler {
	cache := expirable.NewLRU[string, *rate.Limiter](cacheSize, nil, ttl)

	limiterFor := func(addr string) *rate.Limiter {
		limiter, ok := cache.Get(addr)
		if !ok {
			limiter = rate.NewLimiter(rate.Every(interval), burst)
			cache.Add(addr, limiter)
		}
		return limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := limiterFor(remoteAddr(r))

			reservation := limiter.Reserve()
			if !reservation.OK() || reservation.Delay() > 0 {
				delay := reservation.Delay()
				reservation.Cancel()
				metrics.EventsDropped.WithLabelValues(metrics.ReasonRateLimited).Inc()
				if delay > 0 && delay != rate.InfDuration {
					w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				}
				writeJSON(w, http.StatusTooManyRequests, errorBody("rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// remoteAddr returns the client IP. chi's RealIP middleware has already
// applied X-Forwarded-For / X-Real-IP when it is mounted.
func remoteAddr(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
