// Package googleplaces is a client for the Google Places API (New) text
// search.
package googleplaces

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"path"

	"github.com/briangreenhill/tripplanner/internal/domain"
	"github.com/briangreenhill/tripplanner/internal/upstream"
)

const (
	Vendor         = "google-places"
	DefaultBaseURL = "https://places.googleapis.com"

	fieldMask = "places.id,places.displayName,places.formattedAddress,places.location," +
		"places.rating,places.priceLevel,places.websiteUri,places.types,places.primaryType"
)

var includedTypes = map[domain.PlaceCategory]string{
	domain.CategoryFood:        "restaurant",
	domain.CategoryLodging:     "lodging",
	domain.CategoryAttractions: "tourist_attraction",
}

var defaultQueries = map[domain.PlaceCategory]string{
	domain.CategoryFood:        "restaurants",
	domain.CategoryLodging:     "hotels",
	domain.CategoryAttractions: "things to do",
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

type SearchParams struct {
	Lat, Lon float64
	Category domain.PlaceCategory
	Query    string
	RadiusM  int
	Limit    int
}

func (c *Client) SearchText(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	query := p.Query
	if query == "" {
		query = defaultQueries[p.Category]
	}
	body := searchRequest{
		TextQuery:      query,
		IncludedType:   includedTypes[p.Category],
		MaxResultCount: p.Limit,
	}
	body.LocationBias.Circle.Center = latLng{Latitude: p.Lat, Longitude: p.Lon}
	body.LocationBias.Circle.Radius = float64(p.RadiusM)

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	u := *c.baseURL
	u.Path = path.Join(u.Path, "/v1/places:searchText")
	target := u.String()

	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("X-Goog-Api-Key", c.apiKey)
	h.Set("X-Goog-FieldMask", fieldMask)

	var out SearchResponse
	err = c.up.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(raw))
	}, h, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
