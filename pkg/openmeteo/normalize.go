package openmeteo

import (
	"errors"
	"fmt"

	"github.com/briangreenhill/tripplanner/internal/domain"
	"github.com/briangreenhill/tripplanner/internal/upstream"
)

// Conditions converts a daily response into one condition per day, keyed by
// date. Days whose temperatures are null are skipped.
func Conditions(r *DailyResponse, tier domain.WeatherTier) (map[string]domain.WeatherCondition, error) {
	d := r.Daily
	n := len(d.Time)
	if len(d.TemperatureMax) != n || len(d.TemperatureMin) != n {
		return nil, upstream.Invalid(Vendor, fmt.Errorf("daily arrays disagree: %d days, %d max, %d min",
			n, len(d.TemperatureMax), len(d.TemperatureMin)))
	}

	out := make(map[string]domain.WeatherCondition, n)
	for i, date := range d.Time {
		if d.TemperatureMax[i] == nil || d.TemperatureMin[i] == nil {
			continue
		}
		code := intAt(d.WeatherCode, i)
		wc := domain.WeatherCondition{
			Date:            date,
			Tier:            tier,
			TempMaxC:        *d.TemperatureMax[i],
			TempMinC:        *d.TemperatureMin[i],
			PrecipitationMM: floatAt(d.PrecipitationSum, i),
			WindMaxKmh:      floatAt(d.WindSpeedMax, i),
			WeatherCode:     code,
			Summary:         Summary(code),
		}
		if i < len(d.PrecipitationProbabilityMax) && d.PrecipitationProbabilityMax[i] != nil {
			p := *d.PrecipitationProbabilityMax[i]
			wc.PrecipitationProbability = &p
		}
		out[date] = wc
	}
	return out, nil
}

func floatAt(vs []*float64, i int) float64 {
	if i < len(vs) && vs[i] != nil {
		return *vs[i]
	}
	return 0
}

func intAt(vs []*int, i int) int {
	if i < len(vs) && vs[i] != nil {
		return *vs[i]
	}
	return 0
}

// Locations converts geocoding results.
func Locations(r *GeocodingResponse) []domain.Location {
	out := make([]domain.Location, 0, len(r.Results))
	for _, g := range r.Results {
		out = append(out, domain.Location{
			Name:        g.Name,
			DisplayName: joinNonEmpty(g.Name, g.Admin1, g.Country),
			Lat:         g.Latitude,
			Lon:         g.Longitude,
			Country:     g.Country,
			CountryCode: g.CountryCode,
			Region:      g.Admin1,
			Timezone:    g.Timezone,
			Population:  g.Population,
			Kind:        g.FeatureCode,
			Source:      Vendor,
		})
	}
	return out
}

// TimeZone converts a timezone lookup.
func TimeZone(r *TimezoneResponse) (domain.TimeZone, error) {
	if r.Timezone == "" {
		return domain.TimeZone{}, upstream.Invalid(Vendor, errors.New("timezone missing from response"))
	}
	return domain.TimeZone{
		ID:               r.Timezone,
		Abbreviation:     r.TimezoneAbbreviation,
		UTCOffsetSeconds: r.UTCOffsetSeconds,
		Source:           Vendor,
	}, nil
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += p
	}
	return out
}

// Summary describes a WMO weather interpretation code.
func Summary(code int) string {
	switch code {
	case 0:
		return "Clear sky"
	case 1:
		return "Mainly clear"
	case 2:
		return "Partly cloudy"
	case 3:
		return "Overcast"
	case 45, 48:
		return "Fog"
	case 51, 53, 55:
		return "Drizzle"
	case 56, 57:
		return "Freezing drizzle"
	case 61, 63, 65:
		return "Rain"
	case 66, 67:
		return "Freezing rain"
	case 71, 73, 75:
		return "Snow"
	case 77:
		return "Snow grains"
	case 80, 81, 82:
		return "Rain showers"
	case 85, 86:
		return "Snow showers"
	case 95:
		return "Thunderstorm"
	case 96, 99:
		return "Thunderstorm with hail"
	}
	return "Unknown"
}
