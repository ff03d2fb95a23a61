// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/tripplanner/cache"
	"github.com/briangreenhill/tripplanner/internal/clock"
	"github.com/briangreenhill/tripplanner/internal/config"
	"github.com/briangreenhill/tripplanner/internal/http/routes"
	"github.com/briangreenhill/tripplanner/internal/providers"
	"github.com/briangreenhill/tripplanner/internal/ratelimit"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Msg("load .env")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}
	logger = logger.Level(cfg.Level())
	zerolog.DefaultContextLogger = &logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Cache
	policy, err := cfg.CachePolicy()
	if err != nil {
		logger.Fatal().Err(err).Msg("cache policy")
	}
	clk := clock.Real{}
	store := cache.NewMemory(cfg.Cache.CleanupInterval,
		cache.WithPolicy(policy),
		cache.WithMaxEntries(cfg.Cache.MaxEntries),
		cache.WithClock(clk),
		cache.WithLogger(logger.With().Str("component", "cache").Logger()),
	)
	defer store.Close()

	// Inbound rate limits
	def := ratelimit.Limit{Max: cfg.RateLimit.Max, Window: cfg.RateLimit.Window}
	opts := []ratelimit.Option{ratelimit.WithClock(clk)}
	for cat, n := range cfg.RateLimit.PerCategory {
		opts = append(opts, ratelimit.WithCategoryLimit(cat, ratelimit.Limit{Max: n, Window: cfg.RateLimit.Window}))
	}
	limiter := ratelimit.New(def, opts...)
	go pruneLimiter(ctx, limiter, cfg.RateLimit.PruneInterval, logger)

	// Vendor adapters
	svc, err := providers.Setup(cfg, store, clk, logger.With().Str("component", "providers").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("providers setup")
	}

	// Router / server
	s := routes.New(routes.ServerOptions{
		Services: svc,
		Limiter:  limiter,
		Cache:    store,
	})
	h := hlog.NewHandler(logger)(s.Router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("starting api")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("stopped")
}

func pruneLimiter(ctx context.Context, l *ratelimit.Limiter, every time.Duration, log zerolog.Logger) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := l.Prune(); n > 0 {
				log.Debug().Int("windows", n).Msg("pruned rate limit windows")
			}
		}
	}
}
