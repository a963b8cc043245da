package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// IPRateLimitConfig holds the per-IP pre-limit applied before any handler
// runs. This is a coarse transport-level throttle; the authoritative
// per-(identifier, action) limiter lives in the service layer.
type IPRateLimitConfig struct {
	RequestsPerMinute int
}

// DefaultIPRateLimit returns the default per-IP limit for the security endpoints
func DefaultIPRateLimit() IPRateLimitConfig {
	return IPRateLimitConfig{
		RequestsPerMinute: 60,
	}
}

// RateLimitByIP creates a middleware that rate limits requests by client IP
func RateLimitByIP(config IPRateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate_limit_exceeded","message":"Too many requests"}`))
		}),
	)
}
