// Package domain holds the vendor-neutral types every adapter normalises
// into and the HTTP layer serialises.
package domain

import "time"

// Location is a geocoded point, a city search hit or a reverse lookup.
type Location struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name,omitempty"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
	Region      string  `json:"region,omitempty"`
	Timezone    string  `json:"timezone,omitempty"`
	Population  int     `json:"population,omitempty"`
	Kind        string  `json:"kind,omitempty"`
	Source      string  `json:"source"`
}

// PlaceCategory is the coarse grouping the planner searches by.
type PlaceCategory string

const (
	CategoryFood        PlaceCategory = "food"
	CategoryLodging     PlaceCategory = "lodging"
	CategoryAttractions PlaceCategory = "attractions"
)

// Valid reports whether c is one of the known categories.
func (c PlaceCategory) Valid() bool {
	switch c {
	case CategoryFood, CategoryLodging, CategoryAttractions:
		return true
	}
	return false
}

// Place is a point of interest.
type Place struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Category PlaceCategory `json:"category"`
	Tags     []string      `json:"tags,omitempty"`
	Address  string        `json:"address,omitempty"`
	Lat      float64       `json:"lat"`
	Lon      float64       `json:"lon"`
	Distance int           `json:"distance_m,omitempty"`
	// Rating is on a 0-5 scale regardless of vendor.
	Rating     float64 `json:"rating,omitempty"`
	PriceLevel int     `json:"price_level,omitempty"`
	Website    string  `json:"website,omitempty"`
	Phone      string  `json:"phone,omitempty"`
	Source     string  `json:"source"`
}

// Stay is somewhere to sleep.
type Stay struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Kind       string  `json:"kind,omitempty"`
	Address    string  `json:"address,omitempty"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Rating     float64 `json:"rating,omitempty"`
	PriceLevel int     `json:"price_level,omitempty"`
	Website    string  `json:"website,omitempty"`
	Source     string  `json:"source"`
}

// StayFromPlace projects a lodging place onto a Stay.
func StayFromPlace(p Place) Stay {
	kind := ""
	if len(p.Tags) > 0 {
		kind = p.Tags[0]
	}
	return Stay{
		ID:         p.ID,
		Name:       p.Name,
		Kind:       kind,
		Address:    p.Address,
		Lat:        p.Lat,
		Lon:        p.Lon,
		Rating:     p.Rating,
		PriceLevel: p.PriceLevel,
		Website:    p.Website,
		Source:     p.Source,
	}
}

// WeatherTier says how a day's weather was obtained.
type WeatherTier string

const (
	TierHistorical WeatherTier = "historical"
	TierForecast   WeatherTier = "forecast"
	// TierPrediction is an average of the same calendar day in past years.
	TierPrediction WeatherTier = "prediction"
)

// WeatherCondition is one day of weather at a location.
type WeatherCondition struct {
	Date                     string      `json:"date"`
	Tier                     WeatherTier `json:"tier"`
	TempMaxC                 float64     `json:"temp_max_c"`
	TempMinC                 float64     `json:"temp_min_c"`
	PrecipitationMM          float64     `json:"precipitation_mm"`
	PrecipitationProbability *int        `json:"precipitation_probability,omitempty"`
	WindMaxKmh               float64     `json:"wind_max_kmh"`
	WeatherCode              int         `json:"weather_code"`
	Summary                  string      `json:"summary"`
}

// Airport is one end of a flight.
type Airport struct {
	IATA    string  `json:"iata,omitempty"`
	ICAO    string  `json:"icao,omitempty"`
	Name    string  `json:"name"`
	City    string  `json:"city,omitempty"`
	Country string  `json:"country,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// FlightRoute is the scheduled route flown under a callsign.
type FlightRoute struct {
	Callsign    string  `json:"callsign"`
	AirlineName string  `json:"airline_name,omitempty"`
	AirlineIATA string  `json:"airline_iata,omitempty"`
	AirlineICAO string  `json:"airline_icao,omitempty"`
	Origin      Airport `json:"origin"`
	Destination Airport `json:"destination"`
	Source      string  `json:"source"`
}

// FlightSegment is one leg of an offer.
type FlightSegment struct {
	From      string        `json:"from"`
	To        string        `json:"to"`
	Departure time.Time     `json:"departure"`
	Arrival   time.Time     `json:"arrival"`
	Carrier   string        `json:"carrier"`
	Number    string        `json:"number"`
	Duration  time.Duration `json:"duration_ns"`
}

// FlightOffer is a bookable itinerary with a price.
type FlightOffer struct {
	ID       string          `json:"id"`
	Price    float64         `json:"price"`
	Currency string          `json:"currency"`
	Stops    int             `json:"stops"`
	Duration time.Duration   `json:"duration_ns"`
	Segments []FlightSegment `json:"segments"`
}

// FlightSearchResult holds the offers for one origin, destination and date.
type FlightSearchResult struct {
	Origin      string        `json:"origin"`
	Destination string        `json:"destination"`
	Date        string        `json:"date"`
	Adults      int           `json:"adults"`
	Offers      []FlightOffer `json:"offers"`
	Source      string        `json:"source"`
}

// TravelMode selects the routing profile.
type TravelMode string

const (
	ModeDriving TravelMode = "driving"
	ModeWalking TravelMode = "walking"
	ModeCycling TravelMode = "cycling"
)

func (m TravelMode) Valid() bool {
	switch m {
	case ModeDriving, ModeWalking, ModeCycling:
		return true
	}
	return false
}

// TravelTime is the estimated trip between two points.
type TravelTime struct {
	Mode           TravelMode    `json:"mode"`
	DistanceMeters float64       `json:"distance_m"`
	Duration       time.Duration `json:"duration_ns"`
	Summary        string        `json:"summary,omitempty"`
	Source         string        `json:"source"`
}

// TimeZone is the zone in effect at a location.
type TimeZone struct {
	ID               string `json:"id"`
	Abbreviation     string `json:"abbreviation,omitempty"`
	UTCOffsetSeconds int    `json:"utc_offset_seconds"`
	Source           string `json:"source"`
}
