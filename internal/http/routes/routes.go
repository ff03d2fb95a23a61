package routes

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/tripplanner/cache"
	appmw "github.com/briangreenhill/tripplanner/internal/http/middleware"
	"github.com/briangreenhill/tripplanner/internal/providers"
	"github.com/briangreenhill/tripplanner/internal/ratelimit"
)

const defaultRequestTimeout = 30 * time.Second

// StatsSource reports cache counters.
type StatsSource interface {
	Stats() cache.Stats
}

type Server struct {
	Router   *chi.Mux
	Services *providers.Services
	Limiter  *ratelimit.Limiter
	Cache    StatsSource
}

type ServerOptions struct {
	Services *providers.Services
	Limiter  *ratelimit.Limiter
	Cache    StatsSource
	// RequestTimeout bounds a whole request, retries included.
	RequestTimeout time.Duration
}

func New(opts ServerOptions) *Server {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(appmw.RequestID)
	r.Use(appmw.AccessLog)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(timeout))

	s := &Server{Router: r, Services: opts.Services, Limiter: opts.Limiter, Cache: opts.Cache}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("write health check response")
		}
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/providers", s.handleProviders)
		api.Get("/cache/stats", s.handleCacheStats)

		api.With(s.limit(ratelimit.CategoryWeather)).Get("/weather", s.handleWeather)

		api.With(s.limit(ratelimit.CategoryGeocoding)).Get("/geocode", s.handleGeocode)
		api.With(s.limit(ratelimit.CategoryGeocoding)).Get("/geocode/reverse", s.handleReverseGeocode)
		api.With(s.limit(ratelimit.CategoryCities)).Get("/cities", s.handleCities)

		api.With(s.limit(ratelimit.CategoryPlaces)).Get("/places", s.handlePlaces)
		api.With(s.limit(ratelimit.CategoryPlaces)).Get("/stays", s.handleStays)

		api.With(s.limit(ratelimit.CategoryFlights)).Get("/flights/route", s.handleFlightRoute)
		api.With(s.limit(ratelimit.CategoryFlights)).Get("/flights/search", s.handleFlightSearch)

		api.With(s.limit(ratelimit.CategoryRouting)).Get("/routing", s.handleRouting)
		api.With(s.limit(ratelimit.CategoryTimezone)).Get("/timezone", s.handleTimezone)
	})

	return s
}

// limit is a no-op when the server has no limiter.
func (s *Server) limit(category string) func(http.Handler) http.Handler {
	if s.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return appmw.RateLimit(s.Limiter, category)
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{"providers": s.Services.Registry.Describe()})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if s.Cache == nil {
		writeJSON(w, r, http.StatusOK, cache.Stats{})
		return
	}
	writeJSON(w, r, http.StatusOK, s.Cache.Stats())
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("encode response")
	}
}
