package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/briangreenhill/tripplanner/internal/clock"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "tripplanner/1.0"

	maxBodyBytes  = 8 << 20
	maxErrorBytes = 512
)

// Client performs one JSON request against a vendor and classifies the
// result. It never retries; wrap calls in Retry for that.
type Client struct {
	vendor    string
	http      *http.Client
	timeout   time.Duration
	userAgent string
	limiter   *rate.Limiter
	clock     clock.Clock
	log       zerolog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout bounds each individual request, independent of the caller's
// context.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithPacing spaces outbound requests to at most r per second with the given
// burst, for vendors whose usage policy demands it.
func WithPacing(r rate.Limit, burst int) ClientOption {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

func WithClock(clk clock.Clock) ClientOption {
	return func(c *Client) { c.clock = clk }
}

func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

func NewClient(vendor string, opts ...ClientOption) *Client {
	c := &Client{
		vendor:    vendor,
		http:      http.DefaultClient,
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		clock:     clock.Real{},
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Vendor is the name used in classified errors.
func (c *Client) Vendor() string { return c.vendor }

// Now reads the client's clock.
func (c *Client) Now() time.Time { return c.clock.Now() }

// GetJSON issues a GET to rawURL and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, header http.Header, out any) error {
	return c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	}, header, out)
}

// Do builds a request with newReq under the per-call timeout, sends it and
// decodes a 2xx JSON body into out. Every failure is classified.
func (c *Client) Do(ctx context.Context, newReq func(context.Context) (*http.Request, error), header http.Header, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Classify(c.vendor, nil, err, c.clock.Now())
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := newReq(ctx)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.vendor, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := c.clock.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Classify(c.vendor, nil, err, c.clock.Now())
	}
	defer resp.Body.Close() //nolint:errcheck

	c.log.Debug().
		Str("vendor", c.vendor).
		Str("method", req.Method).
		Str("host", req.URL.Host).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", c.clock.Now().Sub(start)).
		Msg("vendor call")

	if cerr := Classify(c.vendor, resp, nil, c.clock.Now()); cerr != nil {
		var ue *Error
		if errors.As(cerr, &ue) {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
			ue.Body = string(snippet)
		}
		return cerr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		// A timeout or reset mid-body is a transport failure, not bad data.
		if isNetwork(err) {
			return &Error{Kind: KindNetwork, Vendor: c.vendor, Err: err}
		}
		return Invalid(c.vendor, fmt.Errorf("decode: %w", err))
	}
	return nil
}
