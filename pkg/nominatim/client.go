// Package nominatim is a client for OpenStreetMap's Nominatim geocoder.
// Its usage policy requires an identifying User-Agent and at most one
// request per second; both are configured on the upstream client.
package nominatim

import (
	"context"
	"net/url"
	"path"
	"strconv"

	"github.com/briangreenhill/tripplanner/internal/upstream"
)

const (
	Vendor         = "nominatim"
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
)

type Client struct {
	up      *upstream.Client
	baseURL *url.URL
	lang    string
}

type Option func(*Client)

func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil && raw != "" {
			c.baseURL = u
		}
	}
}

// WithLanguage sets accept-language for result names.
func WithLanguage(lang string) Option {
	return func(c *Client) { c.lang = lang }
}

func New(up *upstream.Client, opts ...Option) *Client {
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{up: up, baseURL: u, lang: "en"}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) endpoint(p string, q url.Values) string {
	u := *c.baseURL
	u.Path = path.Join(u.Path, p)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	if c.lang != "" {
		q.Set("accept-language", c.lang)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Search geocodes a free-text query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	var out []Result
	if err := c.up.GetJSON(ctx, c.endpoint("/search", q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Reverse finds the address nearest to a point. A point with nothing
// nearby yields a result with Error set.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Result, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))

	var out Result
	if err := c.up.GetJSON(ctx, c.endpoint("/reverse", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
