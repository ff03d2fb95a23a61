package ratelimit_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/briangreenhill/tripplanner/internal/clock"
	"github.com/briangreenhill/tripplanner/internal/ratelimit"
)

func newLimiter(n int, window time.Duration, opts ...ratelimit.Option) (*ratelimit.Limiter, *clock.Fake) {
	clk := clock.NewFake(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	return ratelimit.New(ratelimit.Limit{Max: n, Window: window}, append(opts, ratelimit.WithClock(clk))...), clk
}

func TestCheck_WindowReset(t *testing.T) {
	t.Parallel()
	rl, clk := newLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Check("1.2.3.4", ratelimit.CategoryWeather), "call %d", i+1)
	}
	assert.False(t, rl.Check("1.2.3.4", ratelimit.CategoryWeather))

	clk.Advance(time.Minute)
	assert.True(t, rl.Check("1.2.3.4", ratelimit.CategoryWeather))
}

func TestCheck_DenyDoesNotCount(t *testing.T) {
	t.Parallel()
	rl, clk := newLimiter(2, time.Minute)

	rl.Check("c", ratelimit.CategoryPlaces)
	rl.Check("c", ratelimit.CategoryPlaces)
	for i := 0; i < 10; i++ {
		assert.False(t, rl.Check("c", ratelimit.CategoryPlaces))
	}
	h := rl.Headers("c", ratelimit.CategoryPlaces)
	assert.Equal(t, 0, h.Remaining)

	clk.Advance(time.Minute)
	assert.True(t, rl.Check("c", ratelimit.CategoryPlaces))
	assert.True(t, rl.Check("c", ratelimit.CategoryPlaces))
}

func TestCheck_CategoryAndClientIsolation(t *testing.T) {
	t.Parallel()
	rl, _ := newLimiter(1, time.Minute)

	assert.True(t, rl.Check("x", ratelimit.CategoryPlaces))
	assert.False(t, rl.Check("x", ratelimit.CategoryPlaces))

	assert.True(t, rl.Check("x", ratelimit.CategoryWeather))
	assert.True(t, rl.Check("y", ratelimit.CategoryPlaces))
}

func TestCheck_CategoryOverride(t *testing.T) {
	t.Parallel()
	rl, _ := newLimiter(100, time.Minute, ratelimit.WithCategoryLimit(ratelimit.CategoryFlights, ratelimit.Limit{Max: 1, Window: time.Hour}))

	assert.Equal(t, ratelimit.Limit{Max: 1, Window: time.Hour}, rl.LimitFor(ratelimit.CategoryFlights))
	assert.True(t, rl.Check("x", ratelimit.CategoryFlights))
	assert.False(t, rl.Check("x", ratelimit.CategoryFlights))
	assert.True(t, rl.Check("x", ratelimit.CategoryRouting))
}

func TestHeaders(t *testing.T) {
	t.Parallel()
	rl, clk := newLimiter(5, time.Minute)
	start := clk.Now()

	h := rl.Headers("c", ratelimit.CategoryCities)
	assert.Equal(t, ratelimit.Headers{Limit: 5, Remaining: 5, ResetAt: start.Add(time.Minute)}, h)

	rl.Check("c", ratelimit.CategoryCities)
	clk.Advance(10 * time.Second)
	rl.Check("c", ratelimit.CategoryCities)

	h = rl.Headers("c", ratelimit.CategoryCities)
	assert.Equal(t, 3, h.Remaining)
	assert.Equal(t, start.Add(time.Minute), h.ResetAt)
}

func TestPrune(t *testing.T) {
	t.Parallel()
	rl, clk := newLimiter(5, time.Minute)

	rl.Check("a", ratelimit.CategoryWeather)
	clk.Advance(30 * time.Second)
	rl.Check("b", ratelimit.CategoryWeather)
	clk.Advance(30 * time.Second)

	assert.Equal(t, 1, rl.Prune())
	assert.Equal(t, 4, rl.Headers("b", ratelimit.CategoryWeather).Remaining)
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded first entry", map[string]string{"X-Forwarded-For": " 203.0.113.9 , 10.0.0.1"}, "10.0.0.2:5555", "203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:5555", "198.51.100.4"},
		{"forwarded wins over real ip", map[string]string{"X-Forwarded-For": "203.0.113.9", "X-Real-IP": "198.51.100.4"}, "10.0.0.2:5555", "203.0.113.9"},
		{"peer address", nil, "192.0.2.1:1234", "192.0.2.1"},
		{"ipv6 peer", nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"bare peer", nil, "192.0.2.1", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ratelimit.ClientIP(r))
		})
	}
}

func TestIsCategory(t *testing.T) {
	t.Parallel()
	for _, c := range ratelimit.Categories() {
		assert.True(t, ratelimit.IsCategory(c), c)
	}
	assert.False(t, ratelimit.IsCategory("place"))
	assert.False(t, ratelimit.IsCategory("Places"))
}
