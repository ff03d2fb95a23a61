// Package foursquare is a client for the Foursquare Places v3 search API.
package foursquare

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/briangreenhill/tripplanner/internal/domain"
	"github.com/briangreenhill/tripplanner/internal/upstream"
)

const (
	Vendor         = "foursquare"
	DefaultBaseURL = "https://api.foursquare.com"

	fields = "fsq_id,name,categories,distance,geocodes,location,rating,price,website,tel"
)

// categoryIDs are Foursquare's top-level taxonomy roots per planner category.
var categoryIDs = map[domain.PlaceCategory]string{
	domain.CategoryFood:        "13000",
	domain.CategoryLodging:     "19014",
	domain.CategoryAttractions: "10000,16000",
}

type Client struct {
	up      *upstream.Client
	baseURL *url.URL
	apiKey  string
}

type Option func(*Client)

func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil && raw != "" {
			c.baseURL = u
		}
	}
}

// New fails with a MISSING_CONFIGURATION error when apiKey is empty.
func New(up *upstream.Client, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, upstream.MissingConfig(Vendor)
	}
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{up: up, baseURL: u, apiKey: apiKey}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// SearchParams narrows a places search around a point.
type SearchParams struct {
	Lat, Lon float64
	Category domain.PlaceCategory
	Query    string
	RadiusM  int
	Limit    int
}

func (c *Client) Search(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("ll", fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon))
	q.Set("fields", fields)
	q.Set("sort", "RELEVANCE")
	if ids, ok := categoryIDs[p.Category]; ok {
		q.Set("categories", ids)
	}
	if p.Query != "" {
		q.Set("query", p.Query)
	}
	if p.RadiusM > 0 {
		q.Set("radius", strconv.Itoa(p.RadiusM))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}

	u := *c.baseURL
	u.Path = path.Join(u.Path, "/v3/places/search")
	u.RawQuery = q.Encode()

	h := http.Header{}
	h.Set("Authorization", c.apiKey)

	var out SearchResponse
	if err := c.up.GetJSON(ctx, u.String(), h, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
