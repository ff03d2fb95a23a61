package routes

import (
	"net/http"

	"github.com/briangreenhill/tripplanner/internal/domain"
	"github.com/briangreenhill/tripplanner/internal/providers"
)

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := weatherParams{Lat: q.Get("lat"), Lon: q.Get("lon"), Dates: q.Get("dates")}
	if err := p.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	lat, lon := mustFloat(p.Lat), mustFloat(p.Lon)

	days, err := s.Services.Weather.Conditions(r.Context(), lat, lon, p.dates())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"lat": lat, "lon": lon, "days": days})
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	p := searchParams{Q: r.URL.Query().Get("q")}
	if err := p.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	locs, err := s.Services.Geocoding.Search(r.Context(), p.Q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"results": locs})
}

func (s *Server) handleReverseGeocode(w http.ResponseWriter, r *http.Request) {
	p := coordsFrom(r.URL.Query())
	if err := p.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	lat, lon := p.point()
	loc, err := s.Services.Geocoding.Reverse(r.Context(), lat, lon)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, loc)
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	p := searchParams{Q: r.URL.Query().Get("q")}
	if err := p.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	locs, err := s.Services.Cities.Search(r.Context(), p.Q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"results": locs})
}

func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := placesParams{
		optionalCoordParams: optionalCoordParams(coordsFrom(q)),
		Category:            q.Get("category"),
		Q:                   q.Get("q"),
	}
	if err := p.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	places, err := s.Services.Places.Search(r.Context(), providers.PlaceQuery{
		Near:     p.near(),
		Category: domain.PlaceCategory(p.Category),
		Query:    p.Q,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"places": places})
}

func (s *Server) handleStays(w http.ResponseWriter, r *http.Request) {
	p := optionalCoordParams(coordsFrom(r.URL.Query()))
	if err := p.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	stays, err := s.Services.Places.Stays(r.Context(), p.near())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"stays": stays})
}

func (s *Server) handleFlightRoute(w http.ResponseWriter, r *http.Request) {
	p := callsignParams{Callsign: r.URL.Query().Get("callsign")}
	if err := p.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	route, err := s.Services.Flights.Route(r.Context(), p.Callsign)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, route)
}

func (s *Server) handleFlightSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := flightSearchParams{
		Origin:      q.Get("origin"),
		Destination: q.Get("destination"),
		Date:        q.Get("date"),
		Adults:      q.Get("adults"),
	}
	if err := p.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.Services.Flights.Search(r.Context(), providers.FlightQuery{
		Origin:      p.Origin,
		Destination: p.Destination,
		Date:        p.Date,
		Adults:      p.adults(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleRouting(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := routingParams{
		FromLat: q.Get("from_lat"),
		FromLon: q.Get("from_lon"),
		ToLat:   q.Get("to_lat"),
		ToLon:   q.Get("to_lon"),
		Mode:    q.Get("mode"),
	}
	if err := p.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	tt, err := s.Services.Routing.TravelTime(r.Context(), domain.TravelMode(p.Mode),
		providers.Point{Lat: mustFloat(p.FromLat), Lon: mustFloat(p.FromLon)},
		providers.Point{Lat: mustFloat(p.ToLat), Lon: mustFloat(p.ToLon)},
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, tt)
}

func (s *Server) handleTimezone(w http.ResponseWriter, r *http.Request) {
	p := coordsFrom(r.URL.Query())
	if err := p.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	lat, lon := p.point()
	tz, err := s.Services.Timezones.Lookup(r.Context(), lat, lon)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, tz)
}
