package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/tripplanner/internal/domain"
	"github.com/briangreenhill/tripplanner/internal/upstream"
	"github.com/briangreenhill/tripplanner/pkg/openmeteo"
	"github.com/briangreenhill/tripplanner/pkg/osrm"
)

type fakeRouter struct {
	modes []domain.TravelMode
	err   error
}

func (f *fakeRouter) Route(_ context.Context, mode domain.TravelMode, _, _, _, _ float64) (*osrm.RouteResponse, error) {
	f.modes = append(f.modes, mode)
	if f.err != nil {
		return nil, f.err
	}
	return &osrm.RouteResponse{Code: "Ok", Routes: []osrm.Route{{
		Distance: 12500, Duration: 900, Legs: []osrm.Leg{{Summary: "A4"}},
	}}}, nil
}

func TestRoutingTravelTime(t *testing.T) {
	src := &fakeRouter{}
	r := NewRouting(src, testDeps(t))
	from, to := Point{48.8566, 2.3522}, Point{48.8049, 2.1204}

	tt, err := r.TravelTime(context.Background(), "", from, to)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeDriving, tt.Mode)
	assert.InDelta(t, 12500, tt.DistanceMeters, 1e-9)
	assert.Equal(t, "15m0s", tt.Duration.String())

	_, err = r.TravelTime(context.Background(), domain.ModeDriving, from, to)
	require.NoError(t, err)
	_, err = r.TravelTime(context.Background(), domain.ModeWalking, from, to)
	require.NoError(t, err)
	assert.Equal(t, []domain.TravelMode{domain.ModeDriving, domain.ModeWalking}, src.modes)
}

func TestRoutingNoRoute(t *testing.T) {
	r := NewRouting(&fakeRouter{err: osrm.ErrNoRoute}, testDeps(t))

	_, err := r.TravelTime(context.Background(), domain.ModeDriving, Point{0, 0}, Point{60, 170})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoutingUnknownMode(t *testing.T) {
	r := NewRouting(&fakeRouter{}, testDeps(t))

	_, err := r.TravelTime(context.Background(), "teleport", Point{}, Point{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

type fakeTimezone struct {
	calls int
	resp  *openmeteo.TimezoneResponse
	err   error
}

func (f *fakeTimezone) Timezone(context.Context, float64, float64) (*openmeteo.TimezoneResponse, error) {
	f.calls++
	return f.resp, f.err
}

func TestTimezonesLookup(t *testing.T) {
	src := &fakeTimezone{resp: &openmeteo.TimezoneResponse{
		Timezone: "Europe/Paris", TimezoneAbbreviation: "CEST", UTCOffsetSeconds: 7200,
	}}
	tz := NewTimezones(src, testDeps(t))

	got, err := tz.Lookup(context.Background(), 48.8566, 2.3522)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", got.ID)
	assert.Equal(t, 7200, got.UTCOffsetSeconds)

	_, err = tz.Lookup(context.Background(), 48.86, 2.35)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
}

func TestTimezonesInvalidResponse(t *testing.T) {
	tz := NewTimezones(&fakeTimezone{resp: &openmeteo.TimezoneResponse{}}, testDeps(t))

	_, err := tz.Lookup(context.Background(), 0, 0)
	require.Error(t, err)
	assert.Equal(t, upstream.KindInvalid, upstream.KindOf(err))
}
