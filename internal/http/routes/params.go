package routes

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/briangreenhill/tripplanner/internal/domain"
	"github.com/briangreenhill/tripplanner/internal/providers"
)

const (
	dateLayout      = "2006-01-02"
	maxWeatherDates = 31
	maxQueryLen     = 200
)

var (
	callsignRE = regexp.MustCompile(`^[A-Za-z0-9]{3,8}$`)
	iataRE     = regexp.MustCompile(`^[A-Za-z]{3}$`)
)

// between checks a numeric string is finite and lies in [lo, hi]. Empty
// values are left to Required.
func between(lo, hi float64) validation.Rule {
	return validation.By(func(v any) error {
		s, _ := v.(string)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return errors.New("must be a number")
		}
		if f < lo || f > hi {
			return fmt.Errorf("must be between %g and %g", lo, hi)
		}
		return nil
	})
}

func latRules(required bool) []validation.Rule {
	return []validation.Rule{validation.Required.When(required), is.Float, between(-90, 90)}
}

func lonRules(required bool) []validation.Rule {
	return []validation.Rule{validation.Required.When(required), is.Float, between(-180, 180)}
}

func mustFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

type coordParams struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func coordsFrom(q url.Values) coordParams {
	return coordParams{Lat: q.Get("lat"), Lon: q.Get("lon")}
}

func (p coordParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Lat, latRules(true)...),
		validation.Field(&p.Lon, lonRules(true)...),
	)
}

func (p coordParams) point() (float64, float64) {
	return mustFloat(p.Lat), mustFloat(p.Lon)
}

// optionalCoordParams allows both coordinates to be absent, but not one.
type optionalCoordParams coordParams

func (p optionalCoordParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Lat, latRules(p.Lon != "")...),
		validation.Field(&p.Lon, lonRules(p.Lat != "")...),
	)
}

// near is nil when no location was given.
func (p optionalCoordParams) near() *providers.Point {
	if p.Lat == "" {
		return nil
	}
	return &providers.Point{Lat: mustFloat(p.Lat), Lon: mustFloat(p.Lon)}
}

type weatherParams struct {
	Lat   string `json:"lat"`
	Lon   string `json:"lon"`
	Dates string `json:"dates"`
}

func (p weatherParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Lat, latRules(true)...),
		validation.Field(&p.Lon, lonRules(true)...),
		validation.Field(&p.Dates, validation.Required, validation.By(dateList)),
	)
}

func (p weatherParams) dates() []string {
	return splitList(p.Dates)
}

func dateList(v any) error {
	s, _ := v.(string)
	dates := splitList(s)
	if len(dates) > maxWeatherDates {
		return fmt.Errorf("at most %d dates are allowed", maxWeatherDates)
	}
	for _, d := range dates {
		if _, err := time.Parse(dateLayout, d); err != nil {
			return fmt.Errorf("%q is not a YYYY-MM-DD date", d)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type searchParams struct {
	Q string `json:"q"`
}

func (p searchParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Q, validation.Required, validation.Length(1, maxQueryLen)),
	)
}

type placesParams struct {
	optionalCoordParams
	Category string `json:"category"`
	Q        string `json:"q"`
}

func (p placesParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.optionalCoordParams),
		validation.Field(&p.Category, validation.Required, validation.In(
			string(domain.CategoryFood), string(domain.CategoryLodging), string(domain.CategoryAttractions))),
		validation.Field(&p.Q, validation.Length(0, maxQueryLen)),
	)
}

type callsignParams struct {
	Callsign string `json:"callsign"`
}

func (p callsignParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Callsign, validation.Required,
			validation.Match(callsignRE).Error("must be 3 to 8 letters or digits")),
	)
}

type flightSearchParams struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
	Adults      string `json:"adults"`
}

func (p flightSearchParams) Validate() error {
	iata := validation.Match(iataRE).Error("must be a 3-letter IATA code")
	return validation.ValidateStruct(&p,
		validation.Field(&p.Origin, validation.Required, iata),
		validation.Field(&p.Destination, validation.Required, iata),
		validation.Field(&p.Date, validation.Required, validation.Date(dateLayout).Error("must be a YYYY-MM-DD date")),
		validation.Field(&p.Adults, is.Int, between(1, 9)),
	)
}

func (p flightSearchParams) adults() int {
	n, err := strconv.Atoi(p.Adults)
	if err != nil {
		return 1
	}
	return n
}

type routingParams struct {
	FromLat string `json:"from_lat"`
	FromLon string `json:"from_lon"`
	ToLat   string `json:"to_lat"`
	ToLon   string `json:"to_lon"`
	Mode    string `json:"mode"`
}

func (p routingParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FromLat, latRules(true)...),
		validation.Field(&p.FromLon, lonRules(true)...),
		validation.Field(&p.ToLat, latRules(true)...),
		validation.Field(&p.ToLon, lonRules(true)...),
		validation.Field(&p.Mode, validation.In(
			string(domain.ModeDriving), string(domain.ModeWalking), string(domain.ModeCycling))),
	)
}
