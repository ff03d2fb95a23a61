// Package osrm is a client for the OSRM routing engine's route service.
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"

	"github.com/briangreenhill/tripplanner/internal/domain"
	"github.com/briangreenhill/tripplanner/internal/upstream"
)

const (
	Vendor         = "osrm"
	DefaultBaseURL = "https://router.project-osrm.org"
)

// ErrNoRoute is returned when the points cannot be connected.
var ErrNoRoute = errors.New("osrm: no route between points")

var profiles = map[domain.TravelMode]string{
	domain.ModeDriving: "driving",
	domain.ModeWalking: "foot",
	domain.ModeCycling: "bike",
}

type Client struct {
	up      *upstream.Client
	baseURL *url.URL
}

type Option func(*Client)

func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil && raw != "" {
			c.baseURL = u
		}
	}
}

func New(up *upstream.Client, opts ...Option) *Client {
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{up: up, baseURL: u}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Route computes the fastest route between two points.
func (c *Client) Route(ctx context.Context, mode domain.TravelMode, fromLat, fromLon, toLat, toLon float64) (*RouteResponse, error) {
	profile, ok := profiles[mode]
	if !ok {
		profile = profiles[domain.ModeDriving]
	}
	coords := fmt.Sprintf("%.6f,%.6f;%.6f,%.6f", fromLon, fromLat, toLon, toLat)

	u := *c.baseURL
	u.Path = path.Join(u.Path, "/route/v1", profile, coords)
	q := url.Values{}
	q.Set("overview", "false")
	u.RawQuery = q.Encode()

	var out RouteResponse
	if err := c.up.GetJSON(ctx, u.String(), nil, &out); err != nil {
		if isNoRoute(err) {
			return nil, ErrNoRoute
		}
		return nil, err
	}
	if out.Code == "NoRoute" || (out.Code == "Ok" && len(out.Routes) == 0) {
		return nil, ErrNoRoute
	}
	if out.Code != "Ok" {
		return nil, upstream.Invalid(Vendor, fmt.Errorf("code %q: %s", out.Code, out.Message))
	}
	return &out, nil
}

// OSRM reports unroutable points as a 400 with code NoRoute.
func isNoRoute(err error) bool {
	var ue *upstream.Error
	if !errors.As(err, &ue) || ue.Kind != upstream.KindClient {
		return false
	}
	var body struct {
		Code string `json:"code"`
	}
	return json.Unmarshal([]byte(ue.Body), &body) == nil && body.Code == "NoRoute"
}
