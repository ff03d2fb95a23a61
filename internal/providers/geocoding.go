package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/briangreenhill/tripplanner/cache"
	"github.com/briangreenhill/tripplanner/internal/domain"
	"github.com/briangreenhill/tripplanner/pkg/nominatim"
	"github.com/briangreenhill/tripplanner/pkg/openmeteo"
)

const geocodeLimit = 5

// GeocodeSource is the subset of the Nominatim client the adapter uses.
type GeocodeSource interface {
	Search(ctx context.Context, query string, limit int) ([]nominatim.Result, error)
	Reverse(ctx context.Context, lat, lon float64) (*nominatim.Result, error)
}

// Geocoding resolves free text to locations and points to addresses.
// Failures surface as typed errors.
type Geocoding struct {
	src  GeocodeSource
	deps Deps
}

func NewGeocoding(src GeocodeSource, d Deps) *Geocoding {
	return &Geocoding{src: src, deps: d}
}

func (g *Geocoding) Name() string       { return "geocoding" }
func (g *Geocoding) Vendors() []string  { return []string{nominatim.Vendor} }
func (g *Geocoding) IsConfigured() bool { return g.src != nil }

func (g *Geocoding) Search(ctx context.Context, query string) ([]domain.Location, error) {
	q := cache.Text(query)
	if q == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	key := cache.Key("geocode:search", q)
	return fetch(ctx, g.deps, key, cache.TypeGeocoding, func(ctx context.Context) ([]domain.Location, error) {
		rs, err := g.src.Search(ctx, q, geocodeLimit)
		if err != nil {
			return nil, err
		}
		return nominatim.Locations(rs)
	})
}

func (g *Geocoding) Reverse(ctx context.Context, lat, lon float64) (domain.Location, error) {
	key := cache.Key("geocode:reverse", cache.Coord(lat, lon))
	return fetch(ctx, g.deps, key, cache.TypeGeocoding, func(ctx context.Context) (domain.Location, error) {
		r, err := g.src.Reverse(ctx, lat, lon)
		if err != nil {
			return domain.Location{}, err
		}
		if r.Error != "" {
			return domain.Location{}, fmt.Errorf("%w: %s", ErrNotFound, strings.ToLower(r.Error))
		}
		return nominatim.Location(*r)
	})
}

// CitySource is the subset of the Open-Meteo client city search uses.
type CitySource interface {
	SearchCities(ctx context.Context, name string, count int) (*openmeteo.GeocodingResponse, error)
}

// Cities searches populated places by name. No match is an empty list.
type Cities struct {
	src  CitySource
	deps Deps
}

func NewCities(src CitySource, d Deps) *Cities {
	return &Cities{src: src, deps: d}
}

func (c *Cities) Name() string       { return "cities" }
func (c *Cities) Vendors() []string  { return []string{openmeteo.Vendor} }
func (c *Cities) IsConfigured() bool { return c.src != nil }

func (c *Cities) Search(ctx context.Context, query string) ([]domain.Location, error) {
	q := cache.Text(query)
	if q == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	key := cache.Key("cities", q)
	return fetch(ctx, c.deps, key, cache.TypeCitySearch, func(ctx context.Context) ([]domain.Location, error) {
		resp, err := c.src.SearchCities(ctx, q, 10)
		if err != nil {
			return nil, err
		}
		return openmeteo.Locations(resp), nil
	})
}
