// Package providers contains the vendor adapters. Each adapter builds a
// cache key from its normalised parameters, collapses concurrent fetches
// through the cache, retries the vendor call with backoff and normalises
// the payload into the domain model.
package providers

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/tripplanner/cache"
	"github.com/briangreenhill/tripplanner/internal/clock"
	"github.com/briangreenhill/tripplanner/internal/upstream"
)

var (
	// ErrNotFound means the vendor answered but had nothing for the request.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput wraps parameters an adapter cannot use.
	ErrInvalidInput = errors.New("invalid input")
)

// Provider describes one registered adapter.
type Provider interface {
	// Name returns the name of the provider (e.g., "weather", "places")
	Name() string

	// Vendors lists the upstream services the adapter can call
	Vendors() []string

	// IsConfigured reports whether the adapter has the credentials it needs
	IsConfigured() bool
}

// Info is a provider's public description.
type Info struct {
	Name       string   `json:"name"`
	Vendors    []string `json:"vendors"`
	Configured bool     `json:"configured"`
}

// Registry manages available adapters
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry
func (r *Registry) Register(provider Provider) {
	r.providers[provider.Name()] = provider
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (Provider, bool) {
	provider, exists := r.providers[name]
	return provider, exists
}

// List returns all registered provider names, sorted
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Describe returns Info for every registered provider, sorted by name
func (r *Registry) Describe() []Info {
	out := make([]Info, 0, len(r.providers))
	for _, name := range r.List() {
		p := r.providers[name]
		out = append(out, Info{Name: name, Vendors: p.Vendors(), Configured: p.IsConfigured()})
	}
	return out
}

// Deps are the collaborators every adapter shares.
type Deps struct {
	Cache cache.Cache
	Retry []upstream.Option
	Log   zerolog.Logger
	Clock clock.Clock
}

func (d Deps) now() time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock.Now()
}

// fetch serves key from the cache, or runs op under the retrier inside a
// deduplicated fetch and caches the result under t.
func fetch[T any](ctx context.Context, d Deps, key string, t cache.Type, op func(ctx context.Context) (T, error)) (T, error) {
	return dedupe(ctx, d, key, t, func(ctx context.Context) (T, error) {
		return retry(ctx, d, key, op)
	})
}

func dedupe[T any](ctx context.Context, d Deps, key string, t cache.Type, produce func(ctx context.Context) (T, error)) (T, error) {
	return cache.Fetch(ctx, d.Cache, key, t, func(ctx context.Context) (T, error) {
		d.Log.Debug().Str("key", key).Str("cache_type", string(t)).Msg("cache miss")
		return produce(ctx)
	})
}

func retry[T any](ctx context.Context, d Deps, key string, op func(ctx context.Context) (T, error)) (T, error) {
	opts := append(slices.Clone(d.Retry), upstream.WithOnRetry(func(attempt int, delay time.Duration, err error) {
		d.Log.Warn().Err(err).Str("key", key).Int("attempt", attempt).Dur("delay", delay).Msg("retrying vendor call")
	}))
	return upstream.Retry(ctx, op, opts...)
}
