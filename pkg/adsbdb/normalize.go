package adsbdb

import "github.com/briangreenhill/tripplanner/internal/domain"

// Route converts an adsbdb route.
func Route(r *FlightRoute) domain.FlightRoute {
	out := domain.FlightRoute{
		Callsign:    r.Callsign,
		Origin:      airport(r.Origin),
		Destination: airport(r.Destination),
		Source:      Vendor,
	}
	if r.Airline != nil {
		out.AirlineName = r.Airline.Name
		out.AirlineIATA = r.Airline.IATA
		out.AirlineICAO = r.Airline.ICAO
	}
	return out
}

func airport(a Airport) domain.Airport {
	return domain.Airport{
		IATA:    a.IATACode,
		ICAO:    a.ICAOCode,
		Name:    a.Name,
		City:    a.Municipality,
		Country: a.CountryName,
		Lat:     a.Latitude,
		Lon:     a.Longitude,
	}
}
