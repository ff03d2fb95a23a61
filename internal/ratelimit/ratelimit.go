// Package ratelimit implements fixed-window request budgets per client and
// route category.
//
// A window resets entirely once its length has elapsed, so a client can
// spend up to twice its budget across a window boundary. State is process
// local: every replica of the server counts independently.
package ratelimit

import (
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/briangreenhill/tripplanner/internal/clock"
)

// Route categories. Each has its own budget per client.
const (
	CategoryWeather   = "weather"
	CategoryPlaces    = "places"
	CategoryGeocoding = "geocoding"
	CategoryCities    = "cities"
	CategoryRouting   = "routing"
	CategoryFlights   = "flights"
	CategoryTimezone  = "timezone"
)

// Categories lists every route category.
func Categories() []string {
	return []string{
		CategoryWeather, CategoryPlaces, CategoryGeocoding, CategoryCities,
		CategoryRouting, CategoryFlights, CategoryTimezone,
	}
}

// IsCategory reports whether name is a known route category.
func IsCategory(name string) bool {
	return slices.Contains(Categories(), name)
}

// Limit is a budget of Max requests per Window.
type Limit struct {
	Max    int
	Window time.Duration
}

// Headers carries the values advertised to clients.
type Headers struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type windowKey struct {
	client   string
	category string
}

type window struct {
	start time.Time
	count int
}

type Limiter struct {
	mu      sync.Mutex
	windows map[windowKey]*window

	def    Limit
	limits map[string]Limit
	clock  clock.Clock
}

type Option func(*Limiter)

// WithCategoryLimit overrides the default budget for one category.
func WithCategoryLimit(category string, l Limit) Option {
	return func(rl *Limiter) {
		if l.Max > 0 && l.Window > 0 {
			rl.limits[category] = l
		}
	}
}

func WithClock(clk clock.Clock) Option {
	return func(rl *Limiter) { rl.clock = clk }
}

// New builds a limiter whose categories share def unless overridden.
func New(def Limit, opts ...Option) *Limiter {
	rl := &Limiter{
		windows: make(map[windowKey]*window),
		def:     def,
		limits:  make(map[string]Limit),
		clock:   clock.Real{},
	}
	for _, o := range opts {
		o(rl)
	}
	return rl
}

// Now reports the limiter's clock.
func (rl *Limiter) Now() time.Time { return rl.clock.Now() }

// LimitFor returns the budget for category.
func (rl *Limiter) LimitFor(category string) Limit {
	if l, ok := rl.limits[category]; ok {
		return l
	}
	return rl.def
}

// Check reports whether the request is allowed and, if so, counts it.
// Denied requests are not counted.
func (rl *Limiter) Check(clientID, category string) bool {
	lim := rl.LimitFor(category)
	now := rl.clock.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	k := windowKey{clientID, category}
	w, ok := rl.windows[k]
	if !ok || now.Sub(w.start) >= lim.Window {
		w = &window{start: now}
		rl.windows[k] = w
	}
	if w.count >= lim.Max {
		return false
	}
	w.count++
	return true
}

// Headers reports the budget state without counting a request.
func (rl *Limiter) Headers(clientID, category string) Headers {
	lim := rl.LimitFor(category)
	now := rl.clock.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[windowKey{clientID, category}]
	if !ok || now.Sub(w.start) >= lim.Window {
		return Headers{Limit: lim.Max, Remaining: lim.Max, ResetAt: now.Add(lim.Window)}
	}
	return Headers{
		Limit:     lim.Max,
		Remaining: max(lim.Max-w.count, 0),
		ResetAt:   w.start.Add(lim.Window),
	}
}

// Prune drops windows that have fully elapsed and returns how many were
// removed.
func (rl *Limiter) Prune() int {
	now := rl.clock.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	n := 0
	for k, w := range rl.windows {
		if now.Sub(w.start) >= rl.LimitFor(k.category).Window {
			delete(rl.windows, k)
			n++
		}
	}
	return n
}

// ClientIP identifies the caller: the first X-Forwarded-For entry, then
// X-Real-IP, then the connection's peer address. Both headers are client
// controlled, so outside a trusted proxy this is abuse mitigation only.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); xr != "" {
		return xr
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
