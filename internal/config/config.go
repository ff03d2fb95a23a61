// Package config handles application configuration from environment variables
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/tripplanner/cache"
	"github.com/briangreenhill/tripplanner/internal/ratelimit"
	"github.com/briangreenhill/tripplanner/internal/upstream"
)

// Config holds all application configuration
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Upstream     UpstreamConfig
	Cache        CacheConfig
	RateLimit    RateLimitConfig
	Foursquare   FoursquareConfig
	GooglePlaces GooglePlacesConfig
	Amadeus      AmadeusConfig
	Endpoints    EndpointConfig
}

// UpstreamConfig controls every outbound vendor call
type UpstreamConfig struct {
	Timeout       time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
	UserAgent     string        `env:"USER_AGENT" envDefault:"tripplanner/1.0 (+https://github.com/briangreenhill/tripplanner)"`
	MaxAttempts   int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"3"`
	InitialDelay  time.Duration `env:"RETRY_INITIAL_DELAY" envDefault:"1s"`
	MaxDelay      time.Duration `env:"RETRY_MAX_DELAY" envDefault:"8s"`
	MaxRetryAfter time.Duration `env:"RETRY_MAX_RETRY_AFTER" envDefault:"30s"`
	Jitter        float64       `env:"RETRY_JITTER" envDefault:"0"`
	// NominatimRPS paces geocoding; the public instance allows one per second.
	NominatimRPS float64 `env:"NOMINATIM_RPS" envDefault:"1"`
}

// CacheConfig sizes the in-process cache. TTLs overrides the default
// policy, e.g. CACHE_TTLS="WEATHER_FORECAST:1h,ROUTING:30m".
type CacheConfig struct {
	MaxEntries      int                      `env:"CACHE_MAX_ENTRIES" envDefault:"10000"`
	CleanupInterval time.Duration            `env:"CACHE_CLEANUP_INTERVAL" envDefault:"5m"`
	TTLs            map[string]time.Duration `env:"CACHE_TTLS"`
}

// RateLimitConfig sets inbound budgets. PerCategory overrides Max for named
// categories, e.g. RATE_LIMITS="places:20,flights:10".
type RateLimitConfig struct {
	Window        time.Duration  `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	Max           int            `env:"RATE_LIMIT_MAX" envDefault:"60"`
	PerCategory   map[string]int `env:"RATE_LIMITS"`
	PruneInterval time.Duration  `env:"RATE_LIMIT_PRUNE_INTERVAL" envDefault:"5m"`
}

// FoursquareConfig holds Foursquare-specific configuration
type FoursquareConfig struct {
	APIKey string `env:"FOURSQUARE_API_KEY"`
}

// GooglePlacesConfig holds Google Places configuration
type GooglePlacesConfig struct {
	APIKey string `env:"GOOGLE_PLACES_API_KEY"`
}

// AmadeusConfig holds Amadeus client-credentials configuration
type AmadeusConfig struct {
	ClientID     string `env:"AMADEUS_CLIENT_ID"`
	ClientSecret string `env:"AMADEUS_CLIENT_SECRET"`
	BaseURL      string `env:"AMADEUS_BASE_URL"`
}

// EndpointConfig overrides vendor base URLs, for self-hosted instances and
// tests. Empty means the vendor default.
type EndpointConfig struct {
	OpenMeteoForecast  string `env:"OPEN_METEO_FORECAST_URL"`
	OpenMeteoArchive   string `env:"OPEN_METEO_ARCHIVE_URL"`
	OpenMeteoGeocoding string `env:"OPEN_METEO_GEOCODING_URL"`
	Nominatim          string `env:"NOMINATIM_URL"`
	OSRM               string `env:"OSRM_URL"`
	ADSBDB             string `env:"ADSBDB_URL"`
	Foursquare         string `env:"FOURSQUARE_URL"`
	GooglePlaces       string `env:"GOOGLE_PLACES_URL"`
}

// Load reads configuration from the process environment
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads configuration from the given variables only
func LoadFrom(environ map[string]string) (*Config, error) {
	if environ == nil {
		environ = map[string]string{}
	}
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HasFoursquare returns true if a Foursquare key is set
func (c *Config) HasFoursquare() bool {
	return c.Foursquare.APIKey != ""
}

// HasGooglePlaces returns true if a Google Places key is set
func (c *Config) HasGooglePlaces() bool {
	return c.GooglePlaces.APIKey != ""
}

// HasAmadeus returns true if both Amadeus credentials are set
func (c *Config) HasAmadeus() bool {
	return c.Amadeus.ClientID != "" && c.Amadeus.ClientSecret != ""
}

// Level parses LogLevel.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// CachePolicy is the default TTL policy with CACHE_TTLS applied.
func (c *Config) CachePolicy() (cache.Policy, error) {
	return cache.DefaultPolicy().With(c.Cache.TTLs)
}

// RetryOptions turns the retry settings into retrier options.
func (c *Config) RetryOptions() []upstream.Option {
	u := c.Upstream
	return []upstream.Option{
		upstream.WithMaxAttempts(u.MaxAttempts),
		upstream.WithInitialDelay(u.InitialDelay),
		upstream.WithMaxDelay(u.MaxDelay),
		upstream.WithMaxRetryAfter(u.MaxRetryAfter),
		upstream.WithJitter(u.Jitter),
	}
}

// Validate rejects settings the server cannot run with. Vendor credentials
// are optional; adapters without them degrade or report the service as not
// configured.
func (c *Config) Validate() error {
	var errs []error
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.Upstream.Timeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}
	if c.Upstream.MaxAttempts < 1 {
		errs = append(errs, errors.New("RETRY_MAX_ATTEMPTS must be at least 1"))
	}
	if c.Upstream.InitialDelay <= 0 || c.Upstream.MaxDelay < c.Upstream.InitialDelay {
		errs = append(errs, errors.New("RETRY_INITIAL_DELAY must be positive and not exceed RETRY_MAX_DELAY"))
	}
	if c.Upstream.Jitter < 0 || c.Upstream.Jitter > 1 {
		errs = append(errs, errors.New("RETRY_JITTER must be between 0 and 1"))
	}
	if c.Upstream.NominatimRPS <= 0 {
		errs = append(errs, errors.New("NOMINATIM_RPS must be positive"))
	}
	if c.Cache.MaxEntries < 0 {
		errs = append(errs, errors.New("CACHE_MAX_ENTRIES must not be negative"))
	}
	if _, err := c.CachePolicy(); err != nil {
		errs = append(errs, fmt.Errorf("CACHE_TTLS: %w", err))
	}
	if c.RateLimit.Window <= 0 || c.RateLimit.Max < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW and RATE_LIMIT_MAX must be positive"))
	}
	for cat, n := range c.RateLimit.PerCategory {
		if !ratelimit.IsCategory(cat) {
			errs = append(errs, fmt.Errorf("RATE_LIMITS: unknown category %q, want one of %s",
				cat, strings.Join(ratelimit.Categories(), ", ")))
			continue
		}
		if n < 1 {
			errs = append(errs, fmt.Errorf("RATE_LIMITS: %s must be positive", cat))
		}
	}
	if (c.Amadeus.ClientID == "") != (c.Amadeus.ClientSecret == "") {
		errs = append(errs, errors.New("AMADEUS_CLIENT_ID and AMADEUS_CLIENT_SECRET must be set together"))
	}
	return errors.Join(errs...)
}
