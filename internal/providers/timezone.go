package providers

import (
	"context"

	"github.com/briangreenhill/tripplanner/cache"
	"github.com/briangreenhill/tripplanner/internal/domain"
	"github.com/briangreenhill/tripplanner/pkg/openmeteo"
)

type TimezoneSource interface {
	Timezone(ctx context.Context, lat, lon float64) (*openmeteo.TimezoneResponse, error)
}

// Timezones resolves the zone at a point.
type Timezones struct {
	src  TimezoneSource
	deps Deps
}

func NewTimezones(src TimezoneSource, d Deps) *Timezones {
	return &Timezones{src: src, deps: d}
}

func (t *Timezones) Name() string       { return "timezone" }
func (t *Timezones) Vendors() []string  { return []string{openmeteo.Vendor} }
func (t *Timezones) IsConfigured() bool { return t.src != nil }

func (t *Timezones) Lookup(ctx context.Context, lat, lon float64) (domain.TimeZone, error) {
	key := cache.Key("timezone", cache.Coord(lat, lon))
	return fetch(ctx, t.deps, key, cache.TypeTimezone, func(ctx context.Context) (domain.TimeZone, error) {
		resp, err := t.src.Timezone(ctx, lat, lon)
		if err != nil {
			return domain.TimeZone{}, err
		}
		return openmeteo.TimeZone(resp)
	})
}
