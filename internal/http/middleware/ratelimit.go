package middleware

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/tripplanner/internal/ratelimit"
)

// RateLimit enforces the limiter's budget for category, keyed by client IP.
// Every response carries the X-RateLimit headers; denied requests get a 429
// with Retry-After.
func RateLimit(l *ratelimit.Limiter, category string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ratelimit.ClientIP(r)
			allowed := l.Check(client, category)
			h := l.Headers(client, category)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(h.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(h.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(h.ResetAt.Unix(), 10))

			if !allowed {
				wait := int(math.Ceil(h.ResetAt.Sub(l.Now()).Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(wait, 1)))
				hlog.FromRequest(r).Warn().Str("client_ip", client).Str("category", category).Msg("rate limit exceeded")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
