package providers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/briangreenhill/tripplanner/cache"
	"github.com/briangreenhill/tripplanner/internal/domain"
	"github.com/briangreenhill/tripplanner/internal/upstream"
	"github.com/briangreenhill/tripplanner/pkg/foursquare"
	"github.com/briangreenhill/tripplanner/pkg/googleplaces"
)

const (
	defaultRadiusM = 5000
	placesLimit    = 20
)

type FoursquareSource interface {
	Search(ctx context.Context, p foursquare.SearchParams) (*foursquare.SearchResponse, error)
}

type GooglePlacesSource interface {
	SearchText(ctx context.Context, p googleplaces.SearchParams) (*googleplaces.SearchResponse, error)
}

// Point is a coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// PlaceQuery describes a places search. A nil Near means the trip has no
// location yet.
type PlaceQuery struct {
	Near     *Point
	Category domain.PlaceCategory
	Query    string
	RadiusM  int
}

// Places searches food, lodging and attractions. Foursquare is tried first
// and Google Places is the fallback.
//
// This adapter degrades instead of failing: a query without a location, or
// with no vendor configured, yields an empty list. Vendor errors still
// surface once every configured vendor has failed.
type Places struct {
	fsq    FoursquareSource
	google GooglePlacesSource
	deps   Deps
}

// NewPlaces accepts nil for either vendor that is not configured.
func NewPlaces(fsq FoursquareSource, google GooglePlacesSource, d Deps) *Places {
	return &Places{fsq: fsq, google: google, deps: d}
}

func (p *Places) Name() string { return "places" }

func (p *Places) Vendors() []string {
	var vs []string
	if p.fsq != nil {
		vs = append(vs, foursquare.Vendor)
	}
	if p.google != nil {
		vs = append(vs, googleplaces.Vendor)
	}
	return vs
}

func (p *Places) IsConfigured() bool { return p.fsq != nil || p.google != nil }

func (p *Places) Search(ctx context.Context, q PlaceQuery) ([]domain.Place, error) {
	if !q.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, q.Category)
	}
	if q.Near == nil {
		return []domain.Place{}, nil
	}
	if !p.IsConfigured() {
		p.deps.Log.Warn().Str("category", string(q.Category)).Msg("places search skipped: no vendor configured")
		return []domain.Place{}, nil
	}
	radius := q.RadiusM
	if radius <= 0 {
		radius = defaultRadiusM
	}
	text := cache.Text(q.Query)

	key := cache.Key("places", cache.Coord(q.Near.Lat, q.Near.Lon), string(q.Category), text, strconv.Itoa(radius))
	return dedupe(ctx, p.deps, key, cache.TypePlaces, func(ctx context.Context) ([]domain.Place, error) {
		var errs []error
		if p.fsq != nil {
			places, err := retry(ctx, p.deps, key, func(ctx context.Context) ([]domain.Place, error) {
				resp, err := p.fsq.Search(ctx, foursquare.SearchParams{
					Lat: q.Near.Lat, Lon: q.Near.Lon, Category: q.Category, Query: text, RadiusM: radius, Limit: placesLimit,
				})
				if err != nil {
					return nil, err
				}
				return foursquare.Places(resp, q.Category), nil
			})
			if err == nil {
				return places, nil
			}
			p.deps.Log.Warn().Err(err).Msg("foursquare failed, trying google places")
			errs = append(errs, err)
		}
		if p.google != nil {
			places, err := retry(ctx, p.deps, key, func(ctx context.Context) ([]domain.Place, error) {
				resp, err := p.google.SearchText(ctx, googleplaces.SearchParams{
					Lat: q.Near.Lat, Lon: q.Near.Lon, Category: q.Category, Query: text, RadiusM: radius, Limit: placesLimit,
				})
				if err != nil {
					return nil, err
				}
				return googleplaces.Places(resp, q.Category), nil
			})
			if err == nil {
				return places, nil
			}
			errs = append(errs, err)
		}
		return nil, lastClassified(errs)
	})
}

// Stays is a lodging search projected onto stays. It degrades the same way
// Search does.
func (p *Places) Stays(ctx context.Context, near *Point) ([]domain.Stay, error) {
	places, err := p.Search(ctx, PlaceQuery{Near: near, Category: domain.CategoryLodging})
	if err != nil {
		return nil, err
	}
	stays := make([]domain.Stay, len(places))
	for i, pl := range places {
		stays[i] = domain.StayFromPlace(pl)
	}
	return stays, nil
}

// lastClassified joins errs but keeps the last one first so KindOf reports
// the fallback vendor's failure.
func lastClassified(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	last := errs[len(errs)-1]
	if upstream.KindOf(last) == "" {
		return errors.Join(errs...)
	}
	return fmt.Errorf("%w (primary: %v)", last, errs[0])
}
