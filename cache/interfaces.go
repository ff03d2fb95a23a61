// Package cache provides the typed in-process cache shared by every vendor
// adapter: TTLs chosen by cache type, lazy expiry, and collapsing of
// concurrent fetches for the same key.
package cache

import (
	"context"
	"errors"
)

// ErrClosed is reported by Close when the cache was already closed.
var ErrClosed = errors.New("cache: closed")

// ErrProducerPanic wraps a panic raised by a Dedupe producer.
var ErrProducerPanic = errors.New("cache: producer panicked")

// Entry is one key/value pair for SetMany.
type Entry struct {
	Key   string
	Value any
}

// Producer fetches the value for a key on a cache miss.
type Producer func(ctx context.Context) (any, error)

// Reader defines lookups. Expired entries are never returned.
type Reader interface {
	Get(key string) (any, bool)
	// GetMany returns only the keys that were found and unexpired.
	GetMany(keys []string) map[string]any
}

// Writer defines stores. The TTL comes from the cache type.
type Writer interface {
	Set(key string, value any, t Type)
	SetMany(entries []Entry, t Type)
}

// Deduper runs at most one Producer per key at a time and shares its
// outcome with every concurrent caller.
type Deduper interface {
	Dedupe(ctx context.Context, key string, t Type, produce Producer) (any, error)
}

// Cache is the interface adapters depend on.
type Cache interface {
	Reader
	Writer
	Deduper
}
