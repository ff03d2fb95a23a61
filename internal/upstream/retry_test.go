package upstream_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/tripplanner/internal/upstream"
)

// recorder replaces the real sleep so tests never wait.
type recorder struct {
	delays []time.Duration
}

func (r *recorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func serverErr() error {
	return &upstream.Error{Kind: upstream.KindServer, Vendor: "test", StatusCode: http.StatusBadGateway}
}

func TestRetry_SucceedsFirstTry(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	calls := 0

	v, err := upstream.Retry(context.Background(), func(context.Context) (string, error) {
		calls++
		return "ok", nil
	}, upstream.WithSleep(rec.sleep))

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.delays)
}

func TestRetry_BoundedAttempts(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	calls := 0

	_, err := upstream.Retry(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, serverErr()
	},
		upstream.WithMaxAttempts(5),
		upstream.WithInitialDelay(time.Second),
		upstream.WithMaxDelay(4*time.Second),
		upstream.WithSleep(rec.sleep),
	)

	require.Error(t, err)
	assert.Equal(t, 5, calls)
	assert.ErrorIs(t, err, upstream.ErrRetriesExhausted)
	assert.Equal(t, upstream.KindServer, upstream.KindOf(err))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 4 * time.Second}, rec.delays)

	for i := 1; i < len(rec.delays); i++ {
		assert.GreaterOrEqual(t, rec.delays[i], rec.delays[i-1])
	}
}

func TestRetry_FatalShortCircuit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{"client error", &upstream.Error{Kind: upstream.KindClient, StatusCode: http.StatusBadRequest}},
		{"invalid response", upstream.Invalid("test", errors.New("bad json"))},
		{"missing configuration", upstream.MissingConfig("test")},
		{"unclassified", errors.New("boom")},
		{"cancelled", context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := &recorder{}
			calls := 0
			_, err := upstream.Retry(context.Background(), func(context.Context) (int, error) {
				calls++
				return 0, tt.err
			}, upstream.WithSleep(rec.sleep))

			require.ErrorIs(t, err, tt.err)
			assert.NotErrorIs(t, err, upstream.ErrRetriesExhausted)
			assert.Equal(t, 1, calls)
			assert.Empty(t, rec.delays)
		})
	}
}

func TestRetry_HonorsRetryAfter(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	calls := 0

	v, err := upstream.Retry(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			h := http.Header{}
			h.Set("Retry-After", "2")
			return "", upstream.FromStatus("test", http.StatusTooManyRequests, h, time.Now())
		}
		return "done", nil
	},
		upstream.WithInitialDelay(50*time.Millisecond),
		upstream.WithSleep(rec.sleep),
	)

	require.NoError(t, err)
	assert.Equal(t, "done", v)
	assert.Equal(t, []time.Duration{2 * time.Second}, rec.delays)
}

func TestRetry_RetryAfterBeyondCapStops(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	calls := 0

	_, err := upstream.Retry(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, &upstream.Error{Kind: upstream.KindRateLimited, StatusCode: 429, RetryAfter: time.Hour}
	},
		upstream.WithMaxRetryAfter(time.Minute),
		upstream.WithSleep(rec.sleep),
	)

	require.ErrorIs(t, err, upstream.ErrRetriesExhausted)
	assert.Equal(t, upstream.KindRateLimited, upstream.KindOf(err))
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.delays)
}

func TestRetry_OnRetryObservesEachBackoff(t *testing.T) {
	t.Parallel()
	var attempts []int

	_, _ = upstream.Retry(context.Background(), func(context.Context) (int, error) {
		return 0, serverErr()
	},
		upstream.WithMaxAttempts(3),
		upstream.WithSleep((&recorder{}).sleep),
		upstream.WithOnRetry(func(attempt int, _ time.Duration, err error) {
			attempts = append(attempts, attempt)
			assert.Equal(t, upstream.KindServer, upstream.KindOf(err))
		}),
	)

	assert.Equal(t, []int{1, 2}, attempts)
}

func TestRetry_StopsWhenContextDone(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := upstream.Retry(ctx, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, serverErr()
	}, upstream.WithInitialDelay(time.Hour))

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestPolicy_BackoffCapsAndJitter(t *testing.T) {
	t.Parallel()
	p := upstream.DefaultPolicy()

	assert.Equal(t, time.Second, p.Backoff(1))
	assert.Equal(t, 2*time.Second, p.Backoff(2))
	assert.Equal(t, 4*time.Second, p.Backoff(3))
	assert.Equal(t, 8*time.Second, p.Backoff(4))
	assert.Equal(t, 8*time.Second, p.Backoff(40))

	p.Jitter = 0.5
	for i := 0; i < 50; i++ {
		d := p.Backoff(2)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 2*time.Second)
	}
}
