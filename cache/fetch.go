package cache

import "context"

// GetAs is Get with a type assertion. A value of another type is a miss.
func GetAs[T any](c Reader, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	tv, ok := v.(T)
	if !ok {
		return zero, false
	}
	return tv, true
}

// Fetch is the typed form of Dedupe used by adapters. A cached value of the
// wrong type counts as a miss and produce is called directly.
func Fetch[T any](ctx context.Context, c Deduper, key string, t Type, produce func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Dedupe(ctx, key, t, func(ctx context.Context) (any, error) {
		return produce(ctx)
	})
	if err != nil {
		return zero, err
	}
	if tv, ok := v.(T); ok {
		return tv, nil
	}
	return produce(ctx)
}
