package providers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/briangreenhill/tripplanner/cache"
	"github.com/briangreenhill/tripplanner/internal/domain"
	"github.com/briangreenhill/tripplanner/internal/upstream"
	"github.com/briangreenhill/tripplanner/pkg/adsbdb"
	"github.com/briangreenhill/tripplanner/pkg/amadeus"
)

var (
	callsignRE = regexp.MustCompile(`^[A-Z0-9]{3,8}$`)
	iataRE     = regexp.MustCompile(`^[A-Z]{3}$`)
)

type RouteSource interface {
	Callsign(ctx context.Context, callsign string) (*adsbdb.FlightRoute, error)
}

type OfferSource interface {
	FlightOffers(ctx context.Context, p amadeus.SearchParams) (*amadeus.OffersResponse, error)
}

// FlightQuery is a one-way offer search.
type FlightQuery struct {
	Origin      string
	Destination string
	Date        string
	Adults      int
}

// Flights looks up routes by callsign and searches offers. Unknown callsigns
// are ErrNotFound; searching without Amadeus credentials is a
// MISSING_CONFIGURATION error.
type Flights struct {
	routes RouteSource
	offers OfferSource
	deps   Deps
}

// NewFlights accepts a nil offers source when Amadeus is not configured.
func NewFlights(routes RouteSource, offers OfferSource, d Deps) *Flights {
	return &Flights{routes: routes, offers: offers, deps: d}
}

func (f *Flights) Name() string { return "flights" }

func (f *Flights) Vendors() []string {
	vs := []string{adsbdb.Vendor}
	if f.offers != nil {
		vs = append(vs, amadeus.Vendor)
	}
	return vs
}

func (f *Flights) IsConfigured() bool { return f.routes != nil }

// Route returns the scheduled route for callsign.
func (f *Flights) Route(ctx context.Context, callsign string) (domain.FlightRoute, error) {
	cs := strings.ToUpper(strings.TrimSpace(callsign))
	if !callsignRE.MatchString(cs) {
		return domain.FlightRoute{}, fmt.Errorf("%w: callsign must be 3-8 letters or digits", ErrInvalidInput)
	}
	key := cache.Key("flights:route", cs)
	return fetch(ctx, f.deps, key, cache.TypeFlightRoute, func(ctx context.Context) (domain.FlightRoute, error) {
		r, err := f.routes.Callsign(ctx, cs)
		if errors.Is(err, adsbdb.ErrUnknownCallsign) {
			return domain.FlightRoute{}, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		if err != nil {
			return domain.FlightRoute{}, err
		}
		return adsbdb.Route(r), nil
	})
}

// Search returns offers for a one-way trip.
func (f *Flights) Search(ctx context.Context, q FlightQuery) (domain.FlightSearchResult, error) {
	origin := strings.ToUpper(strings.TrimSpace(q.Origin))
	dest := strings.ToUpper(strings.TrimSpace(q.Destination))
	if !iataRE.MatchString(origin) || !iataRE.MatchString(dest) {
		return domain.FlightSearchResult{}, fmt.Errorf("%w: origin and destination must be 3-letter IATA codes", ErrInvalidInput)
	}
	if _, err := ParseDates([]string{q.Date}); err != nil {
		return domain.FlightSearchResult{}, err
	}
	adults := max(q.Adults, 1)
	if f.offers == nil {
		return domain.FlightSearchResult{}, upstream.MissingConfig(amadeus.Vendor)
	}

	key := cache.Key("flights:offers", origin, dest, q.Date, strconv.Itoa(adults))
	return fetch(ctx, f.deps, key, cache.TypeFlightOffers, func(ctx context.Context) (domain.FlightSearchResult, error) {
		resp, err := f.offers.FlightOffers(ctx, amadeus.SearchParams{
			Origin: origin, Destination: dest, Date: q.Date, Adults: adults,
		})
		if err != nil {
			return domain.FlightSearchResult{}, err
		}
		offers, err := amadeus.Offers(resp)
		if err != nil {
			return domain.FlightSearchResult{}, err
		}
		return domain.FlightSearchResult{
			Origin:      origin,
			Destination: dest,
			Date:        q.Date,
			Adults:      adults,
			Offers:      offers,
			Source:      amadeus.Vendor,
		}, nil
	})
}
