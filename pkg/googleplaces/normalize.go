package googleplaces

import "github.com/briangreenhill/tripplanner/internal/domain"

var priceLevels = map[string]int{
	"PRICE_LEVEL_FREE":           0,
	"PRICE_LEVEL_INEXPENSIVE":    1,
	"PRICE_LEVEL_MODERATE":       2,
	"PRICE_LEVEL_EXPENSIVE":      3,
	"PRICE_LEVEL_VERY_EXPENSIVE": 4,
}

// Places converts text search results.
func Places(r *SearchResponse, category domain.PlaceCategory) []domain.Place {
	out := make([]domain.Place, 0, len(r.Places))
	for _, p := range r.Places {
		tags := p.Types
		if p.PrimaryType != "" {
			tags = append([]string{p.PrimaryType}, without(p.Types, p.PrimaryType)...)
		}
		out = append(out, domain.Place{
			ID:         p.ID,
			Name:       p.DisplayName.Text,
			Category:   category,
			Tags:       tags,
			Address:    p.FormattedAddress,
			Lat:        p.Location.Latitude,
			Lon:        p.Location.Longitude,
			Rating:     p.Rating,
			PriceLevel: priceLevels[p.PriceLevel],
			Website:    p.WebsiteURI,
			Source:     Vendor,
		})
	}
	return out
}

func without(vs []string, drop string) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if v != drop {
			out = append(out, v)
		}
	}
	return out
}
