package providers

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/briangreenhill/tripplanner/cache"
	"github.com/briangreenhill/tripplanner/internal/domain"
	"github.com/briangreenhill/tripplanner/pkg/openmeteo"
)

const (
	dateLayout = "2006-01-02"

	// archiveLagDays is how long the archive takes to publish a day; more
	// recent days come from the forecast endpoint.
	archiveLagDays = 5
	// predictionYears is how many past years are averaged for days beyond
	// the forecast horizon.
	predictionYears = 3
)

// WeatherSource is the subset of the Open-Meteo client the adapter uses.
type WeatherSource interface {
	Forecast(ctx context.Context, lat, lon float64, start, end string) (*openmeteo.DailyResponse, error)
	Archive(ctx context.Context, lat, lon float64, start, end string) (*openmeteo.DailyResponse, error)
}

// Weather splits requested dates into historical, forecast and prediction
// tiers and fetches them concurrently. Each tier is cached under its own
// cache type. Failures surface as typed errors.
type Weather struct {
	src  WeatherSource
	deps Deps
}

func NewWeather(src WeatherSource, d Deps) *Weather {
	return &Weather{src: src, deps: d}
}

func (w *Weather) Name() string       { return "weather" }
func (w *Weather) Vendors() []string  { return []string{openmeteo.Vendor} }
func (w *Weather) IsConfigured() bool { return w.src != nil }

type dayConditions = map[string]domain.WeatherCondition

// Conditions returns one condition per requested date that has data, in
// chronological order. Duplicate dates are collapsed.
func (w *Weather) Conditions(ctx context.Context, lat, lon float64, dates []string) ([]domain.WeatherCondition, error) {
	days, err := ParseDates(dates)
	if err != nil {
		return nil, err
	}

	today := w.deps.now().UTC().Truncate(24 * time.Hour)
	archiveCutoff := today.AddDate(0, 0, -archiveLagDays)
	// The vendor counts its horizon in the location's local dates, which can
	// trail UTC by a day. The last UTC day goes to prediction.
	forecastEnd := today.AddDate(0, 0, openmeteo.ForecastDays-1)

	var hist, fc, pred []time.Time
	for _, d := range days {
		switch {
		case d.Before(archiveCutoff):
			hist = append(hist, d)
		case d.Before(forecastEnd):
			fc = append(fc, d)
		default:
			pred = append(pred, d)
		}
	}

	tiers := make([]dayConditions, 3)
	g, gctx := errgroup.WithContext(ctx)
	if len(hist) > 0 {
		g.Go(func() (err error) {
			tiers[0], err = w.historical(gctx, lat, lon, hist)
			return err
		})
	}
	if len(fc) > 0 {
		g.Go(func() (err error) {
			tiers[1], err = w.forecast(gctx, lat, lon, fc)
			return err
		})
	}
	if len(pred) > 0 {
		g.Go(func() (err error) {
			tiers[2], err = w.prediction(gctx, lat, lon, pred, archiveCutoff)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.WeatherCondition, 0, len(days))
	for _, d := range days {
		key := d.Format(dateLayout)
		for _, tier := range tiers {
			if c, ok := tier[key]; ok {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func (w *Weather) historical(ctx context.Context, lat, lon float64, days []time.Time) (dayConditions, error) {
	key := cache.Key("weather:historical", cache.Coord(lat, lon), cache.SortedList(formatDates(days)))
	return fetch(ctx, w.deps, key, cache.TypeWeatherHistorical, func(ctx context.Context) (dayConditions, error) {
		resp, err := w.src.Archive(ctx, lat, lon, days[0].Format(dateLayout), days[len(days)-1].Format(dateLayout))
		if err != nil {
			return nil, err
		}
		return selectDays(resp, domain.TierHistorical, days)
	})
}

func (w *Weather) forecast(ctx context.Context, lat, lon float64, days []time.Time) (dayConditions, error) {
	key := cache.Key("weather:forecast", cache.Coord(lat, lon), cache.SortedList(formatDates(days)))
	return fetch(ctx, w.deps, key, cache.TypeWeatherForecast, func(ctx context.Context) (dayConditions, error) {
		resp, err := w.src.Forecast(ctx, lat, lon, days[0].Format(dateLayout), days[len(days)-1].Format(dateLayout))
		if err != nil {
			return nil, err
		}
		return selectDays(resp, domain.TierForecast, days)
	})
}

// prediction averages the same calendar days over the most recent
// predictionYears years the archive has. Each archive call is retried on its
// own so one flaky year does not refetch the others.
func (w *Weather) prediction(ctx context.Context, lat, lon float64, days []time.Time, cutoff time.Time) (dayConditions, error) {
	key := cache.Key("weather:prediction", cache.Coord(lat, lon), cache.SortedList(formatDates(days)))
	return dedupe(ctx, w.deps, key, cache.TypeWeatherPrediction, func(ctx context.Context) (dayConditions, error) {
		base := yearsBack(days[len(days)-1], cutoff)

		samples := make([]dayConditions, predictionYears)
		g, gctx := errgroup.WithContext(ctx)
		for i := range predictionYears {
			shift := base + i
			g.Go(func() error {
				first := days[0].AddDate(-shift, 0, 0)
				last := days[len(days)-1].AddDate(-shift, 0, 0)
				m, err := retry(gctx, w.deps, key, func(ctx context.Context) (dayConditions, error) {
					resp, err := w.src.Archive(ctx, lat, lon, first.Format(dateLayout), last.Format(dateLayout))
					if err != nil {
						return nil, err
					}
					return openmeteo.Conditions(resp, domain.TierPrediction)
				})
				samples[i] = m
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		out := make(dayConditions, len(days))
		for _, d := range days {
			var picked []domain.WeatherCondition
			for i, s := range samples {
				if c, ok := s[d.AddDate(-(base+i), 0, 0).Format(dateLayout)]; ok {
					picked = append(picked, c)
				}
			}
			if len(picked) > 0 {
				out[d.Format(dateLayout)] = average(d.Format(dateLayout), picked)
			}
		}
		return out, nil
	})
}

// yearsBack is the smallest whole-year shift that moves last before cutoff.
func yearsBack(last, cutoff time.Time) int {
	n := max(1, last.Year()-cutoff.Year())
	for !last.AddDate(-n, 0, 0).Before(cutoff) {
		n++
	}
	return n
}

func average(date string, cs []domain.WeatherCondition) domain.WeatherCondition {
	var hi, lo, rain, wind float64
	codes := make(map[int]int, len(cs))
	for _, c := range cs {
		hi += c.TempMaxC
		lo += c.TempMinC
		rain += c.PrecipitationMM
		wind += c.WindMaxKmh
		codes[c.WeatherCode]++
	}
	n := float64(len(cs))

	// Most frequent code; ties go to the higher, more severe one.
	code, best := 0, 0
	for c, k := range codes {
		if k > best || (k == best && c > code) {
			code, best = c, k
		}
	}
	return domain.WeatherCondition{
		Date:            date,
		Tier:            domain.TierPrediction,
		TempMaxC:        round1(hi / n),
		TempMinC:        round1(lo / n),
		PrecipitationMM: round1(rain / n),
		WindMaxKmh:      round1(wind / n),
		WeatherCode:     code,
		Summary:         openmeteo.Summary(code),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func selectDays(resp *openmeteo.DailyResponse, tier domain.WeatherTier, days []time.Time) (dayConditions, error) {
	all, err := openmeteo.Conditions(resp, tier)
	if err != nil {
		return nil, err
	}
	out := make(dayConditions, len(days))
	for _, d := range days {
		k := d.Format(dateLayout)
		if c, ok := all[k]; ok {
			out[k] = c
		}
	}
	return out, nil
}

// ParseDates parses YYYY-MM-DD dates and returns them sorted and unique.
func ParseDates(dates []string) ([]time.Time, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: at least one date is required", ErrInvalidInput)
	}
	out := make([]time.Time, 0, len(dates))
	for _, s := range dates {
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidInput, s)
		}
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(out, func(a, b time.Time) bool { return a.Equal(b) }), nil
}

func formatDates(days []time.Time) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Format(dateLayout)
	}
	return out
}
