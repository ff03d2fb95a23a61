package foursquare

import (
	"math"

	"github.com/briangreenhill/tripplanner/internal/domain"
)

// Places converts search results, tagging each with category.
func Places(r *SearchResponse, category domain.PlaceCategory) []domain.Place {
	out := make([]domain.Place, 0, len(r.Results))
	for _, p := range r.Results {
		tags := make([]string, 0, len(p.Categories))
		for _, c := range p.Categories {
			tags = append(tags, c.Name)
		}
		out = append(out, domain.Place{
			ID:         p.FsqID,
			Name:       p.Name,
			Category:   category,
			Tags:       tags,
			Address:    p.Location.FormattedAddress,
			Lat:        p.Geocodes.Main.Latitude,
			Lon:        p.Geocodes.Main.Longitude,
			Distance:   p.Distance,
			Rating:     math.Round(p.Rating/2*10) / 10,
			PriceLevel: p.Price,
			Website:    p.Website,
			Phone:      p.Tel,
			Source:     Vendor,
		})
	}
	return out
}
