// Package amadeus is a client for the Amadeus Self-Service flight offers
// search. Access tokens come from the OAuth2 client-credentials flow.
package amadeus

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/briangreenhill/tripplanner/internal/upstream"
)

const (
	Vendor         = "amadeus"
	DefaultBaseURL = "https://test.api.amadeus.com"

	tokenPath = "/v1/security/oauth2/token"
)

type Client struct {
	up        *upstream.Client
	baseURL   *url.URL
	currency  string
	maxOffers int
}

type options struct {
	baseURL   string
	base      *http.Client
	upOpts    []upstream.ClientOption
	currency  string
	maxOffers int
}

type Option func(*options)

func WithBaseURL(raw string) Option {
	return func(o *options) {
		if raw != "" {
			o.baseURL = raw
		}
	}
}

// WithHTTPClient sets the transport used for both token and API calls.
func WithHTTPClient(h *http.Client) Option {
	return func(o *options) { o.base = h }
}

// WithUpstreamOptions forwards timeout, logging and clock settings to the
// underlying upstream client.
func WithUpstreamOptions(opts ...upstream.ClientOption) Option {
	return func(o *options) { o.upOpts = append(o.upOpts, opts...) }
}

func WithCurrency(code string) Option {
	return func(o *options) { o.currency = code }
}

func WithMaxOffers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOffers = n
		}
	}
}

// New fails with a MISSING_CONFIGURATION error when either credential is
// empty.
func New(clientID, clientSecret string, opts ...Option) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, upstream.MissingConfig(Vendor)
	}
	o := options{baseURL: DefaultBaseURL, base: http.DefaultClient, currency: "EUR", maxOffers: 10}
	for _, fn := range opts {
		fn(&o)
	}
	u, err := url.Parse(o.baseURL)
	if err != nil {
		return nil, err
	}

	tokenURL := *u
	tokenURL.Path = path.Join(u.Path, tokenPath)
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL.String(),
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, o.base)
	authed := cc.Client(ctx)

	up := upstream.NewClient(Vendor, append(o.upOpts, upstream.WithHTTPClient(authed))...)
	return &Client{up: up, baseURL: u, currency: o.currency, maxOffers: o.maxOffers}, nil
}

// SearchParams identifies a one-way search. Codes are IATA airport or city
// codes and Date is YYYY-MM-DD.
type SearchParams struct {
	Origin      string
	Destination string
	Date        string
	Adults      int
}

func (c *Client) FlightOffers(ctx context.Context, p SearchParams) (*OffersResponse, error) {
	q := url.Values{}
	q.Set("originLocationCode", strings.ToUpper(p.Origin))
	q.Set("destinationLocationCode", strings.ToUpper(p.Destination))
	q.Set("departureDate", p.Date)
	q.Set("adults", strconv.Itoa(max(p.Adults, 1)))
	q.Set("currencyCode", c.currency)
	q.Set("max", strconv.Itoa(c.maxOffers))

	u := *c.baseURL
	u.Path = path.Join(u.Path, "/v2/shopping/flight-offers")
	u.RawQuery = q.Encode()

	var out OffersResponse
	if err := c.up.GetJSON(ctx, u.String(), nil, &out); err != nil {
		return nil, c.tokenError(err)
	}
	return &out, nil
}

// tokenError classifies failures of the token exchange, which surface from
// the transport rather than as an API response.
func (c *Client) tokenError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) || re.Response == nil {
		return err
	}
	if cerr := upstream.FromStatus(Vendor, re.Response.StatusCode, re.Response.Header, c.up.Now()); cerr != nil {
		return cerr
	}
	return upstream.Invalid(Vendor, err)
}
