package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/tripplanner/internal/domain"
	"github.com/briangreenhill/tripplanner/internal/upstream"
	"github.com/briangreenhill/tripplanner/pkg/foursquare"
	"github.com/briangreenhill/tripplanner/pkg/googleplaces"
)

type fakeFoursquare struct {
	calls int
	last  foursquare.SearchParams
	err   error
	resp  *foursquare.SearchResponse
}

func (f *fakeFoursquare) Search(_ context.Context, p foursquare.SearchParams) (*foursquare.SearchResponse, error) {
	f.calls++
	f.last = p
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeGoogle struct {
	calls int
	err   error
	resp  *googleplaces.SearchResponse
}

func (f *fakeGoogle) SearchText(context.Context, googleplaces.SearchParams) (*googleplaces.SearchResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func fsqResponse(names ...string) *foursquare.SearchResponse {
	r := &foursquare.SearchResponse{}
	for _, n := range names {
		r.Results = append(r.Results, foursquare.Place{
			FsqID: "fsq-" + n, Name: n, Rating: 8.4,
			Categories: []foursquare.Category{{ID: 19014, Name: "Hotel"}},
		})
	}
	return r
}

func googleResponse(names ...string) *googleplaces.SearchResponse {
	r := &googleplaces.SearchResponse{}
	for _, n := range names {
		p := googleplaces.Place{ID: "g-" + n, PrimaryType: "hotel", Types: []string{"lodging", "hotel"}}
		p.DisplayName.Text = n
		r.Places = append(r.Places, p)
	}
	return r
}

var paris = &Point{Lat: 48.8566, Lon: 2.3522}

func TestPlacesWithoutLocationIsEmpty(t *testing.T) {
	fsq := &fakeFoursquare{resp: fsqResponse("Le Meurice")}
	p := NewPlaces(fsq, nil, testDeps(t))

	got, err := p.Search(context.Background(), PlaceQuery{Category: domain.CategoryFood})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, fsq.calls)
}

func TestPlacesWithoutVendorsIsEmpty(t *testing.T) {
	p := NewPlaces(nil, nil, testDeps(t))
	assert.False(t, p.IsConfigured())

	got, err := p.Search(context.Background(), PlaceQuery{Near: paris, Category: domain.CategoryAttractions})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPlacesRejectsUnknownCategory(t *testing.T) {
	p := NewPlaces(&fakeFoursquare{}, nil, testDeps(t))
	_, err := p.Search(context.Background(), PlaceQuery{Near: paris, Category: "nightlife"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPlacesPrefersFoursquare(t *testing.T) {
	fsq := &fakeFoursquare{resp: fsqResponse("Le Meurice")}
	google := &fakeGoogle{resp: googleResponse("Ritz")}
	p := NewPlaces(fsq, google, testDeps(t))

	got, err := p.Search(context.Background(), PlaceQuery{Near: paris, Category: domain.CategoryLodging, Query: " Luxury "})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Le Meurice", got[0].Name)
	assert.InDelta(t, 4.2, got[0].Rating, 1e-9)
	assert.Equal(t, foursquare.Vendor, got[0].Source)
	assert.Zero(t, google.calls)

	assert.Equal(t, "luxury", fsq.last.Query)
	assert.Equal(t, defaultRadiusM, fsq.last.RadiusM)
	assert.Equal(t, placesLimit, fsq.last.Limit)
}

func TestPlacesFallsBackToGoogle(t *testing.T) {
	fsq := &fakeFoursquare{err: clientErr(foursquare.Vendor)}
	google := &fakeGoogle{resp: googleResponse("Ritz")}
	p := NewPlaces(fsq, google, testDeps(t))

	got, err := p.Search(context.Background(), PlaceQuery{Near: paris, Category: domain.CategoryLodging})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ritz", got[0].Name)
	assert.Equal(t, []string{"hotel", "lodging"}, got[0].Tags)
	assert.Equal(t, 1, fsq.calls)
	assert.Equal(t, 1, google.calls)
}

func TestPlacesRetriesBeforeFallingBack(t *testing.T) {
	fsq := &fakeFoursquare{err: serverErr(foursquare.Vendor)}
	google := &fakeGoogle{resp: googleResponse("Ritz")}
	p := NewPlaces(fsq, google, testDeps(t))

	_, err := p.Search(context.Background(), PlaceQuery{Near: paris, Category: domain.CategoryFood})
	require.NoError(t, err)
	assert.Equal(t, 3, fsq.calls)
	assert.Equal(t, 1, google.calls)
}

func TestPlacesAllVendorsFail(t *testing.T) {
	fsq := &fakeFoursquare{err: clientErr(foursquare.Vendor)}
	google := &fakeGoogle{err: &upstream.Error{Kind: upstream.KindRateLimited, Vendor: googleplaces.Vendor, StatusCode: 429}}
	p := NewPlaces(fsq, google, testDeps(t))

	_, err := p.Search(context.Background(), PlaceQuery{Near: paris, Category: domain.CategoryFood})
	require.Error(t, err)
	assert.Equal(t, upstream.KindRateLimited, upstream.KindOf(err))
	assert.Contains(t, err.Error(), "foursquare")
}

func TestPlacesResultsAreCached(t *testing.T) {
	fsq := &fakeFoursquare{resp: fsqResponse("Le Meurice")}
	p := NewPlaces(fsq, nil, testDeps(t))
	q := PlaceQuery{Near: paris, Category: domain.CategoryFood}

	_, err := p.Search(context.Background(), q)
	require.NoError(t, err)
	_, err = p.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, fsq.calls)

	q.Category = domain.CategoryAttractions
	_, err = p.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 2, fsq.calls)
}

func TestStays(t *testing.T) {
	p := NewPlaces(&fakeFoursquare{resp: fsqResponse("Le Meurice")}, nil, testDeps(t))

	stays, err := p.Stays(context.Background(), paris)
	require.NoError(t, err)
	require.Len(t, stays, 1)
	assert.Equal(t, "Le Meurice", stays[0].Name)
	assert.Equal(t, "Hotel", stays[0].Kind)

	stays, err = p.Stays(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, stays)
}
