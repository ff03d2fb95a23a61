package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/tripplanner/internal/ratelimit"
)

// AccessLog logs one line per request through the logger hlog.NewHandler
// put in the context.
func AccessLog(next http.Handler) http.Handler {
	return hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		ev := hlog.FromRequest(r).Info()
		if status >= http.StatusInternalServerError {
			ev = hlog.FromRequest(r).Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("client_ip", ratelimit.ClientIP(r)).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("request")
	})(next)
}
