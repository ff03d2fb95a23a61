package osrm

import (
	"time"

	"github.com/briangreenhill/tripplanner/internal/domain"
)

// TravelTime converts the first (best) route.
func TravelTime(r *RouteResponse, mode domain.TravelMode) domain.TravelTime {
	best := r.Routes[0]
	summary := ""
	if len(best.Legs) > 0 {
		summary = best.Legs[0].Summary
	}
	return domain.TravelTime{
		Mode:           mode,
		DistanceMeters: best.Distance,
		Duration:       time.Duration(best.Duration * float64(time.Second)),
		Summary:        summary,
		Source:         Vendor,
	}
}
