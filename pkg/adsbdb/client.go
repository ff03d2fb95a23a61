// Package adsbdb looks up scheduled flight routes by callsign.
package adsbdb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/briangreenhill/tripplanner/internal/upstream"
)

const (
	Vendor         = "adsbdb"
	DefaultBaseURL = "https://api.adsbdb.com"
)

// ErrUnknownCallsign is returned when adsbdb has no route for a callsign.
var ErrUnknownCallsign = errors.New("adsbdb: unknown callsign")

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

// Callsign fetches the route flown under callsign (e.g. "BAW117").
func (c *Client) Callsign(ctx context.Context, callsign string) (*FlightRoute, error) {
	u := *c.baseURL
	u.Path = path.Join(u.Path, "/v0/callsign", url.PathEscape(strings.ToUpper(callsign)))

	var env envelope
	if err := c.up.GetJSON(ctx, u.String(), nil, &env); err != nil {
		var ue *upstream.Error
		if errors.As(err, &ue) && ue.StatusCode == http.StatusNotFound {
			return nil, ErrUnknownCallsign
		}
		return nil, err
	}

	// An unknown callsign can also come back as {"response":"unknown callsign"}.
	var body struct {
		FlightRoute *FlightRoute `json:"flightroute"`
	}
	if err := json.Unmarshal(env.Response, &body); err != nil {
		var msg string
		if json.Unmarshal(env.Response, &msg) == nil {
			return nil, ErrUnknownCallsign
		}
		return nil, upstream.Invalid(Vendor, err)
	}
	if body.FlightRoute == nil {
		return nil, ErrUnknownCallsign
	}
	return body.FlightRoute, nil
}
