package cache

import (
	"fmt"
	"strings"
	"time"
)

// Type names a TTL policy bucket.
type Type string

const (
	TypeCitySearch        Type = "CITY_SEARCH"
	TypeGeocoding         Type = "GEOCODING"
	TypePlaces            Type = "PLACES"
	TypeWeatherForecast   Type = "WEATHER_FORECAST"
	TypeWeatherPrediction Type = "WEATHER_PREDICTION"
	TypeWeatherHistorical Type = "WEATHER_HISTORICAL"
	TypeFlightRoute       Type = "FLIGHT_ROUTE"
	TypeFlightOffers      Type = "FLIGHT_OFFERS"
	TypeRouting           Type = "ROUTING"
	TypeTimezone          Type = "TIMEZONE"
)

// fallbackTTL applies to types missing from a policy.
const fallbackTTL = 5 * time.Minute

const day = 24 * time.Hour

// Policy maps cache types to TTLs.
type Policy map[Type]time.Duration

// DefaultPolicy keeps search and geocoding results for days, forecasts for
// hours and the past effectively forever.
func DefaultPolicy() Policy {
	return Policy{
		TypeCitySearch:        7 * day,
		TypeGeocoding:         30 * day,
		TypePlaces:            day,
		TypeWeatherForecast:   3 * time.Hour,
		TypeWeatherPrediction: 12 * time.Hour,
		TypeWeatherHistorical: 365 * day,
		TypeFlightRoute:       365 * day,
		TypeFlightOffers:      30 * time.Minute,
		TypeRouting:           6 * time.Hour,
		TypeTimezone:          30 * day,
	}
}

// TTL returns the lifetime for t.
func (p Policy) TTL(t Type) time.Duration {
	if d, ok := p[t]; ok && d > 0 {
		return d
	}
	return fallbackTTL
}

// With returns a copy of p with overrides applied. Override keys are matched
// case-insensitively against the known types.
func (p Policy) With(overrides map[string]time.Duration) (Policy, error) {
	out := make(Policy, len(p))
	for k, v := range p {
		out[k] = v
	}
	for name, d := range overrides {
		t, err := ParseType(name)
		if err != nil {
			return nil, err
		}
		if d <= 0 {
			return nil, fmt.Errorf("cache: ttl for %s must be positive", t)
		}
		out[t] = d
	}
	return out, nil
}

// ParseType resolves a cache type name.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := DefaultPolicy()[t]; !ok {
		return "", fmt.Errorf("cache: unknown cache type %q", s)
	}
	return t, nil
}
