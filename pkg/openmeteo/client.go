// Package openmeteo is a client for the Open-Meteo forecast, archive and
// geocoding APIs. None of them need credentials.
package openmeteo

import (
	"context"
	"net/url"
	"path"
	"strconv"

	"github.com/briangreenhill/tripplanner/internal/upstream"
)

const (
	Vendor = "open-meteo"

	DefaultForecastURL  = "https://api.open-meteo.com"
	DefaultArchiveURL   = "https://archive-api.open-meteo.com"
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com"

	// ForecastDays is how far ahead the forecast endpoint reaches, today
	// included.
	ForecastDays = 16
)

const dailyVars = "temperature_2m_max,temperature_2m_min,precipitation_sum,wind_speed_10m_max,weather_code"

type Client struct {
	up          *upstream.Client
	forecastURL *url.URL
	archiveURL  *url.URL
	geocodeURL  *url.URL
}

type Option func(*Client)

func WithForecastURL(raw string) Option {
	return func(c *Client) { setURL(&c.forecastURL, raw) }
}

func WithArchiveURL(raw string) Option {
	return func(c *Client) { setURL(&c.archiveURL, raw) }
}

func WithGeocodingURL(raw string) Option {
	return func(c *Client) { setURL(&c.geocodeURL, raw) }
}

// WithBaseURL points every endpoint at one host, mainly for tests.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		setURL(&c.forecastURL, raw)
		setURL(&c.archiveURL, raw)
		setURL(&c.geocodeURL, raw)
	}
}

func setURL(dst **url.URL, raw string) {
	if raw == "" {
		return
	}
	if u, err := url.Parse(raw); err == nil {
		*dst = u
	}
}

func New(up *upstream.Client, opts ...Option) *Client {
	c := &Client{up: up}
	setURL(&c.forecastURL, DefaultForecastURL)
	setURL(&c.archiveURL, DefaultArchiveURL)
	setURL(&c.geocodeURL, DefaultGeocodingURL)
	for _, o := range opts {
		o(c)
	}
	return c
}

func endpoint(base *url.URL, p string, q url.Values) string {
	u := *base
	u.Path = path.Join(u.Path, p)
	u.RawQuery = q.Encode()
	return u.String()
}

func coordQuery(lat, lon float64) url.Values {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("timezone", "auto")
	return q
}

// Forecast returns daily forecasts between start and end (YYYY-MM-DD,
// inclusive). Both must lie within ForecastDays of today.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, start, end string) (*DailyResponse, error) {
	q := coordQuery(lat, lon)
	q.Set("daily", dailyVars+",precipitation_probability_max")
	q.Set("start_date", start)
	q.Set("end_date", end)

	var out DailyResponse
	if err := c.up.GetJSON(ctx, endpoint(c.forecastURL, "/v1/forecast", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Archive returns observed daily weather between start and end.
func (c *Client) Archive(ctx context.Context, lat, lon float64, start, end string) (*DailyResponse, error) {
	q := coordQuery(lat, lon)
	q.Set("daily", dailyVars)
	q.Set("start_date", start)
	q.Set("end_date", end)

	var out DailyResponse
	if err := c.up.GetJSON(ctx, endpoint(c.archiveURL, "/v1/archive", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchCities looks up populated places by name.
func (c *Client) SearchCities(ctx context.Context, name string, count int) (*GeocodingResponse, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("count", strconv.Itoa(count))
	q.Set("language", "en")
	q.Set("format", "json")

	var out GeocodingResponse
	if err := c.up.GetJSON(ctx, endpoint(c.geocodeURL, "/v1/search", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Timezone resolves the zone at a point through the forecast endpoint's
// automatic timezone detection.
func (c *Client) Timezone(ctx context.Context, lat, lon float64) (*TimezoneResponse, error) {
	q := coordQuery(lat, lon)
	q.Set("forecast_days", "1")

	var out TimezoneResponse
	if err := c.up.GetJSON(ctx, endpoint(c.forecastURL, "/v1/forecast", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
