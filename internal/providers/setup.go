package providers

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/briangreenhill/tripplanner/cache"
	"github.com/briangreenhill/tripplanner/internal/clock"
	"github.com/briangreenhill/tripplanner/internal/config"
	"github.com/briangreenhill/tripplanner/internal/upstream"
	"github.com/briangreenhill/tripplanner/pkg/adsbdb"
	"github.com/briangreenhill/tripplanner/pkg/amadeus"
	"github.com/briangreenhill/tripplanner/pkg/foursquare"
	"github.com/briangreenhill/tripplanner/pkg/googleplaces"
	"github.com/briangreenhill/tripplanner/pkg/nominatim"
	"github.com/briangreenhill/tripplanner/pkg/openmeteo"
	"github.com/briangreenhill/tripplanner/pkg/osrm"
)

// Services holds every adapter the HTTP layer calls.
type Services struct {
	Weather   *Weather
	Geocoding *Geocoding
	Cities    *Cities
	Places    *Places
	Flights   *Flights
	Routing   *Routing
	Timezones *Timezones

	Registry *Registry
}

// Setup builds the vendor clients from cfg and wires the adapters around
// the shared cache. Vendors without credentials are left out; their
// adapters degrade or report MISSING_CONFIGURATION.
func Setup(cfg *config.Config, c cache.Cache, clk clock.Clock, log zerolog.Logger) (*Services, error) {
	if clk == nil {
		clk = clock.Real{}
	}
	d := Deps{Cache: c, Retry: cfg.RetryOptions(), Log: log, Clock: clk}

	upOpts := func(vendor string) []upstream.ClientOption {
		return []upstream.ClientOption{
			upstream.WithTimeout(cfg.Upstream.Timeout),
			upstream.WithUserAgent(cfg.Upstream.UserAgent),
			upstream.WithClock(clk),
			upstream.WithLogger(log.With().Str("vendor", vendor).Logger()),
		}
	}
	newUp := func(vendor string, extra ...upstream.ClientOption) *upstream.Client {
		return upstream.NewClient(vendor, append(upOpts(vendor), extra...)...)
	}

	meteo := openmeteo.New(newUp(openmeteo.Vendor),
		openmeteo.WithForecastURL(cfg.Endpoints.OpenMeteoForecast),
		openmeteo.WithArchiveURL(cfg.Endpoints.OpenMeteoArchive),
		openmeteo.WithGeocodingURL(cfg.Endpoints.OpenMeteoGeocoding),
	)
	nom := nominatim.New(
		newUp(nominatim.Vendor, upstream.WithPacing(rate.Limit(cfg.Upstream.NominatimRPS), 1)),
		nominatim.WithBaseURL(cfg.Endpoints.Nominatim),
	)
	routes := adsbdb.New(newUp(adsbdb.Vendor), adsbdb.WithBaseURL(cfg.Endpoints.ADSBDB))
	router := osrm.New(newUp(osrm.Vendor), osrm.WithBaseURL(cfg.Endpoints.OSRM))

	// Interface values stay nil for unconfigured vendors.
	var fsq FoursquareSource
	if cfg.HasFoursquare() {
		cl, err := foursquare.New(newUp(foursquare.Vendor), cfg.Foursquare.APIKey,
			foursquare.WithBaseURL(cfg.Endpoints.Foursquare))
		if err != nil {
			return nil, fmt.Errorf("foursquare: %w", err)
		}
		fsq = cl
	}
	var google GooglePlacesSource
	if cfg.HasGooglePlaces() {
		cl, err := googleplaces.New(newUp(googleplaces.Vendor), cfg.GooglePlaces.APIKey,
			googleplaces.WithBaseURL(cfg.Endpoints.GooglePlaces))
		if err != nil {
			return nil, fmt.Errorf("google places: %w", err)
		}
		google = cl
	}
	var offers OfferSource
	if cfg.HasAmadeus() {
		cl, err := amadeus.New(cfg.Amadeus.ClientID, cfg.Amadeus.ClientSecret,
			amadeus.WithBaseURL(cfg.Amadeus.BaseURL),
			amadeus.WithUpstreamOptions(upOpts(amadeus.Vendor)...),
		)
		if err != nil {
			return nil, fmt.Errorf("amadeus: %w", err)
		}
		offers = cl
	}

	s := &Services{
		Weather:   NewWeather(meteo, d),
		Geocoding: NewGeocoding(nom, d),
		Cities:    NewCities(meteo, d),
		Places:    NewPlaces(fsq, google, d),
		Flights:   NewFlights(routes, offers, d),
		Routing:   NewRouting(router, d),
		Timezones: NewTimezones(meteo, d),
		Registry:  NewRegistry(),
	}
	for _, p := range []Provider{s.Weather, s.Geocoding, s.Cities, s.Places, s.Flights, s.Routing, s.Timezones} {
		s.Registry.Register(p)
		log.Info().Str("provider", p.Name()).Strs("vendors", p.Vendors()).Bool("configured", p.IsConfigured()).Msg("provider registered")
	}
	return s, nil
}
