package upstream_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/tripplanner/internal/upstream"
)

type payload struct {
	Name string `json:"name"`
}

func TestClient_GetJSON(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tripplanner-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Lisbon"}`))
	}))
	t.Cleanup(srv.Close)

	c := upstream.NewClient("test", upstream.WithUserAgent("tripplanner-test"))
	var out payload
	err := c.GetJSON(context.Background(), srv.URL, http.Header{"X-Api-Key": []string{"secret"}}, &out)

	require.NoError(t, err)
	assert.Equal(t, "Lisbon", out.Name)
}

func TestClient_ClassifiesFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    upstream.Kind
	}{
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Retry-After", "3")
				w.WriteHeader(http.StatusTooManyRequests)
			},
			kind: upstream.KindRateLimited,
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			kind:    upstream.KindServer,
		},
		{
			name: "client error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "bad key", http.StatusUnauthorized)
			},
			kind: upstream.KindClient,
		},
		{
			name:    "malformed json",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"name":`)) },
			kind:    upstream.KindInvalid,
		},
		{
			name:    "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`<html>`)) },
			kind:    upstream.KindInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tt.handler)
			t.Cleanup(srv.Close)

			var out payload
			err := upstream.NewClient("test").GetJSON(context.Background(), srv.URL, nil, &out)
			assert.Equal(t, tt.kind, upstream.KindOf(err), "err: %v", err)
		})
	}
}

func TestClient_TimeoutIsNetworkError(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c := upstream.NewClient("test", upstream.WithTimeout(20*time.Millisecond))
	err := c.GetJSON(context.Background(), srv.URL, nil, &payload{})

	assert.Equal(t, upstream.KindNetwork, upstream.KindOf(err))
	assert.True(t, upstream.IsRetryable(err))
}

func TestClient_RetryRecoversFromTransientFailure(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"name":"Porto"}`))
	}))
	t.Cleanup(srv.Close)

	c := upstream.NewClient("test")
	rec := &recorder{}
	out, err := upstream.Retry(context.Background(), func(ctx context.Context) (payload, error) {
		var p payload
		err := c.GetJSON(ctx, srv.URL, nil, &p)
		return p, err
	}, upstream.WithSleep(rec.sleep))

	require.NoError(t, err)
	assert.Equal(t, "Porto", out.Name)
	assert.Equal(t, int32(3), hits.Load())
	assert.Len(t, rec.delays, 2)
}
