package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/tripplanner/cache"
	"github.com/briangreenhill/tripplanner/internal/clock"
)

var epoch = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestCache(t *testing.T, opts ...cache.Option) (*cache.Memory, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(epoch)
	c := cache.NewMemory(0, append([]cache.Option{cache.WithClock(clk)}, opts...)...)
	t.Cleanup(func() { _ = c.Close() })
	return c, clk
}

func TestMemory_SetGet(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", "v1", cache.TypeGeocoding)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v1", v)

	c.Set("k", "v2", cache.TypeGeocoding)
	v, _ = c.Get("k")
	assert.Equal(t, "v2", v)
}

func TestMemory_TTLPerType(t *testing.T) {
	t.Parallel()
	const eps = time.Millisecond

	for typ, ttl := range cache.DefaultPolicy() {
		t.Run(string(typ), func(t *testing.T) {
			t.Parallel()
			c, clk := newTestCache(t)

			c.Set("k", 1, typ)
			clk.Advance(ttl - eps)
			_, ok := c.Get("k")
			assert.True(t, ok, "present just before ttl")

			clk.Advance(2 * eps)
			_, ok = c.Get("k")
			assert.False(t, ok, "absent just after ttl")
			assert.Zero(t, c.Len(), "expired entry reclaimed on read")
		})
	}
}

func TestMemory_GetManyOmitsMissingAndExpired(t *testing.T) {
	t.Parallel()
	c, clk := newTestCache(t)

	c.SetMany([]cache.Entry{{Key: "a", Value: 1}, {Key: "b", Value: 2}}, cache.TypeWeatherForecast)
	c.Set("c", 3, cache.TypeWeatherHistorical)
	clk.Advance(4 * time.Hour)

	got := c.GetMany([]string{"a", "b", "c", "d"})
	assert.Equal(t, map[string]any{"c": 3}, got)
}

func TestMemory_MaxEntriesEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t, cache.WithMaxEntries(2))

	c.Set("a", 1, cache.TypePlaces)
	c.Set("b", 2, cache.TypePlaces)
	_, _ = c.Get("a")
	c.Set("c", 3, cache.TypePlaces)

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	_, okC := c.Get("c")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
}

func TestMemory_Prune(t *testing.T) {
	t.Parallel()
	c, clk := newTestCache(t)

	c.Set("short", 1, cache.TypeFlightOffers)
	c.Set("long", 2, cache.TypeFlightRoute)
	clk.Advance(time.Hour)

	assert.Equal(t, 1, c.Prune())
	assert.Equal(t, 1, c.Len())
}

func TestMemory_ClosedDegradesToMiss(t *testing.T) {
	t.Parallel()
	c := cache.NewMemory(time.Millisecond)
	require.NoError(t, c.Close())
	require.ErrorIs(t, c.Close(), cache.ErrClosed)

	c.Set("k", 1, cache.TypeRouting)
	_, ok := c.Get("k")
	assert.False(t, ok)

	calls := 0
	for range 2 {
		v, err := c.Dedupe(context.Background(), "k", cache.TypeRouting, func(context.Context) (any, error) {
			calls++
			return "fresh", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "fresh", v)
	}
	assert.Equal(t, 2, calls)
}

func TestMemory_DedupeHitSkipsProducer(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	c.Set("k", "cached", cache.TypeTimezone)

	v, err := c.Dedupe(context.Background(), "k", cache.TypeTimezone, func(context.Context) (any, error) {
		t.Fatal("producer must not run on a hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "cached", v)
}

func TestMemory_DedupeCollapsesConcurrentCallers(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)

	const n = 20
	var calls atomic.Int32
	release := make(chan struct{})
	producer := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "value", nil
	}

	var wg sync.WaitGroup
	results := make([]any, n)
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = c.Dedupe(context.Background(), "k", cache.TypeWeatherForecast, producer)
		}()
	}

	require.Eventually(t, func() bool { return c.Stats().Waiting == n }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := range n {
		require.NoError(t, errs[i])
		assert.Equal(t, "value", results[i])
	}
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "value", v)
	assert.Equal(t, int64(n), c.Stats().Shared)
}

func TestMemory_DedupeSharesErrorsAndDoesNotCacheThem(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)

	boom := errors.New("vendor down")
	const n = 5
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.Dedupe(context.Background(), "k", cache.TypePlaces, func(context.Context) (any, error) {
				calls.Add(1)
				<-release
				return nil, boom
			})
		}()
	}
	require.Eventually(t, func() bool { return c.Stats().Waiting == n }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, err := range errs {
		assert.ErrorIs(t, err, boom)
	}

	// The slot is cleared, so the next call runs a fresh producer.
	v, err := c.Dedupe(context.Background(), "k", cache.TypePlaces, func(context.Context) (any, error) {
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
}

func TestMemory_DedupeProducerPanicBecomesError(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)

	_, err := c.Dedupe(context.Background(), "k", cache.TypeTimezone, func(context.Context) (any, error) {
		panic("nil map write")
	})
	require.ErrorIs(t, err, cache.ErrProducerPanic)
	assert.Contains(t, err.Error(), "nil map write")
	assert.Zero(t, c.Stats().InFlight)

	_, ok := c.Get("k")
	assert.False(t, ok, "a failed flight stores nothing")

	v, err := c.Dedupe(context.Background(), "k", cache.TypeTimezone, func(context.Context) (any, error) {
		return "Europe/Paris", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", v)
}

func TestMemory_DedupeCallerCancelDoesNotCancelFetch(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)

	release := make(chan struct{})
	producerCtxErr := make(chan error, 1)
	producer := func(ctx context.Context) (any, error) {
		<-release
		producerCtxErr <- ctx.Err()
		return "value", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.Dedupe(ctx, "k", cache.TypeRouting, producer)
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return c.Stats().InFlight == 1 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	follower := make(chan any, 1)
	go func() {
		v, _ := c.Dedupe(context.Background(), "k", cache.TypeRouting, producer)
		follower <- v
	}()
	require.Eventually(t, func() bool { return c.Stats().Waiting == 1 }, time.Second, time.Millisecond)
	close(release)

	assert.Equal(t, "value", <-follower)
	assert.NoError(t, <-producerCtxErr)
}

func TestMemory_RoundTripForecast(t *testing.T) {
	t.Parallel()
	c, clk := newTestCache(t)

	key := cache.Key("open-meteo:forecast", cache.Coord(37.7749, -122.4194), cache.SortedList([]string{"2024-06-01"}))
	value := map[string]float64{"high": 21.5, "low": 12.1}

	c.Set(key, value, cache.TypeWeatherForecast)
	got, ok := cache.GetAs[map[string]float64](c, key)
	require.True(t, ok)
	assert.Equal(t, value, got)

	clk.Advance(c.Policy().TTL(cache.TypeWeatherForecast) + time.Second)
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestFetch_Typed(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)

	n, err := cache.Fetch(context.Background(), c, "k", cache.TypeRouting, func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	// A foreign value under the same key is treated as a miss.
	c.Set("k2", "not an int", cache.TypeRouting)
	n, err = cache.Fetch(context.Background(), c, "k2", cache.TypeRouting, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}
