package nominatim

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/briangreenhill/tripplanner/internal/domain"
	"github.com/briangreenhill/tripplanner/internal/upstream"
)

// Location converts one result.
func Location(r Result) (domain.Location, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return domain.Location{}, upstream.Invalid(Vendor, fmt.Errorf("lat %q: %w", r.Lat, err))
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return domain.Location{}, upstream.Invalid(Vendor, fmt.Errorf("lon %q: %w", r.Lon, err))
	}

	name := r.Name
	if name == "" {
		name = firstNonEmpty(r.Address.City, r.Address.Town, r.Address.Village)
	}
	if name == "" {
		name, _, _ = strings.Cut(r.DisplayName, ",")
	}
	return domain.Location{
		Name:        name,
		DisplayName: r.DisplayName,
		Lat:         lat,
		Lon:         lon,
		Country:     r.Address.Country,
		CountryCode: strings.ToUpper(r.Address.CountryCode),
		Region:      r.Address.State,
		Kind:        r.Type,
		Source:      Vendor,
	}, nil
}

// Locations converts a result list, failing on the first malformed entry.
func Locations(rs []Result) ([]domain.Location, error) {
	out := make([]domain.Location, 0, len(rs))
	for _, r := range rs {
		loc, err := Location(r)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, nil
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
