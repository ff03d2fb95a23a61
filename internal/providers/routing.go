package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/briangreenhill/tripplanner/cache"
	"github.com/briangreenhill/tripplanner/internal/domain"
	"github.com/briangreenhill/tripplanner/pkg/osrm"
)

type RoutingSource interface {
	Route(ctx context.Context, mode domain.TravelMode, fromLat, fromLon, toLat, toLon float64) (*osrm.RouteResponse, error)
}

// Routing estimates travel time between two points. Unroutable pairs are
// ErrNotFound.
type Routing struct {
	src  RoutingSource
	deps Deps
}

func NewRouting(src RoutingSource, d Deps) *Routing {
	return &Routing{src: src, deps: d}
}

func (r *Routing) Name() string       { return "routing" }
func (r *Routing) Vendors() []string  { return []string{osrm.Vendor} }
func (r *Routing) IsConfigured() bool { return r.src != nil }

func (r *Routing) TravelTime(ctx context.Context, mode domain.TravelMode, from, to Point) (domain.TravelTime, error) {
	if mode == "" {
		mode = domain.ModeDriving
	}
	if !mode.Valid() {
		return domain.TravelTime{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, mode)
	}
	key := cache.Key("routing", string(mode), cache.Coord(from.Lat, from.Lon), cache.Coord(to.Lat, to.Lon))
	return fetch(ctx, r.deps, key, cache.TypeRouting, func(ctx context.Context) (domain.TravelTime, error) {
		resp, err := r.src.Route(ctx, mode, from.Lat, from.Lon, to.Lat, to.Lon)
		if errors.Is(err, osrm.ErrNoRoute) {
			return domain.TravelTime{}, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		if err != nil {
			return domain.TravelTime{}, err
		}
		return osrm.TravelTime(resp, mode), nil
	})
}
