package upstream

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Defaults used when no option overrides them.
const (
	DefaultMaxAttempts   = 3
	DefaultInitialDelay  = time.Second
	DefaultMaxDelay      = 8 * time.Second
	DefaultMaxRetryAfter = 30 * time.Second
)

// Policy configures Retry. The zero value is not usable; start from
// DefaultPolicy or pass options.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// MaxRetryAfter bounds a server supplied Retry-After. A longer wait ends
	// the retry loop instead of parking the request.
	MaxRetryAfter time.Duration
	// Jitter in [0,1] shortens each computed delay by up to that fraction.
	Jitter  float64
	OnRetry func(attempt int, delay time.Duration, err error)
	Sleep   func(ctx context.Context, d time.Duration) error
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   DefaultMaxAttempts,
		InitialDelay:  DefaultInitialDelay,
		MaxDelay:      DefaultMaxDelay,
		MaxRetryAfter: DefaultMaxRetryAfter,
		Sleep:         sleepCtx,
	}
}

type Option func(*Policy)

func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.MaxAttempts = n
		}
	}
}

func WithInitialDelay(d time.Duration) Option {
	return func(p *Policy) { p.InitialDelay = d }
}

func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) { p.MaxDelay = d }
}

func WithMaxRetryAfter(d time.Duration) Option {
	return func(p *Policy) { p.MaxRetryAfter = d }
}

func WithJitter(f float64) Option {
	return func(p *Policy) { p.Jitter = min(max(f, 0), 1) }
}

// WithOnRetry registers an observer called before each backoff sleep. It
// must not block.
func WithOnRetry(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(p *Policy) { p.OnRetry = fn }
}

// WithSleep replaces the context-aware sleep, mainly for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Policy) { p.Sleep = fn }
}

// Backoff returns the computed delay before attempt+1.
func (p Policy) Backoff(attempt int) time.Duration {
	d := p.InitialDelay
	for i := 1; i < attempt && d < p.MaxDelay; i++ {
		d *= 2
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter > 0 {
		d -= time.Duration(p.Jitter * rand.Float64() * float64(d))
	}
	return d
}

// Retry runs op until it succeeds, fails with a fatal error, or MaxAttempts
// is reached. Only classified retryable errors are retried. After the last
// attempt the final error is returned wrapped with ErrRetriesExhausted.
func Retry[T any](ctx context.Context, op func(context.Context) (T, error), opts ...Option) (T, error) {
	p := DefaultPolicy()
	for _, o := range opts {
		o(&p)
	}
	return RetryWith(ctx, p, op)
}

// RetryWith is Retry with an explicit policy.
func RetryWith[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if p.Sleep == nil {
		p.Sleep = sleepCtx
	}
	for attempt := 1; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if !IsRetryable(err) {
			return zero, err
		}
		if attempt >= p.MaxAttempts {
			return zero, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
		}

		delay := p.Backoff(attempt)
		if ra, ok := RetryAfterOf(err); ok {
			if p.MaxRetryAfter > 0 && ra > p.MaxRetryAfter {
				return zero, fmt.Errorf("%w: retry-after %s exceeds %s: %w", ErrRetriesExhausted, ra, p.MaxRetryAfter, err)
			}
			delay = ra
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if serr := p.Sleep(ctx, delay); serr != nil {
			return zero, fmt.Errorf("%w: %w", serr, err)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
