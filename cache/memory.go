package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/briangreenhill/tripplanner/internal/clock"
)

type entry struct {
	key       string
	value     any
	typ       Type
	expiresAt time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Entries  int   `json:"entries"`
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	InFlight int64 `json:"in_flight"`
	Waiting  int64 `json:"waiting"`
	Shared   int64 `json:"shared"`
}

// Memory is the in-process Cache. Entries live in a map for lookups and a
// list for LRU ordering (front is most recent). Expired entries are dropped
// when read; the janitor and the entry bound only reclaim memory.
type Memory struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List
	closed  bool
	done    chan struct{}
	flights singleflight.Group

	policy     Policy
	maxEntries int
	clock      clock.Clock
	log        zerolog.Logger

	hits, misses, inFlight, waiting, shared atomic.Int64
}

type Option func(*Memory)

func WithPolicy(p Policy) Option {
	return func(m *Memory) {
		if p != nil {
			m.policy = p
		}
	}
}

// WithMaxEntries bounds the cache; the least recently used entry is evicted
// first. Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(m *Memory) { m.maxEntries = max(n, 0) }
}

func WithClock(clk clock.Clock) Option {
	return func(m *Memory) { m.clock = clk }
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Memory) { m.log = l }
}

// NewMemory builds a cache. A positive cleanupInterval starts a janitor
// goroutine that runs until Close.
func NewMemory(cleanupInterval time.Duration, opts ...Option) *Memory {
	m := &Memory{
		items:  make(map[string]*list.Element),
		order:  list.New(),
		done:   make(chan struct{}),
		policy: DefaultPolicy(),
		clock:  clock.Real{},
		log:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(m)
	}
	if cleanupInterval > 0 {
		go m.janitor(cleanupInterval)
	}
	return m
}

// Policy returns the TTL policy in effect.
func (m *Memory) Policy() Policy { return m.policy }

func (m *Memory) Get(key string) (any, bool) {
	v, ok := m.lookup(key)
	if ok {
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
	return v, ok
}

func (m *Memory) GetMany(keys []string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := m.Get(k); ok {
			out[k] = v
		}
	}
	return out
}

func (m *Memory) Set(key string, value any, t Type) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(key, value, t, m.clock.Now())
}

func (m *Memory) SetMany(entries []Entry, t Type) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	for _, e := range entries {
		m.store(e.Key, e.Value, t, now)
	}
}

// Dedupe returns the cached value for key or joins the single in-flight
// fetch for it, starting one when none is running. The producer runs on a
// context detached from any caller's cancellation so one caller leaving does
// not fail the others; a caller whose ctx ends stops waiting with ctx.Err().
// Errors are shared with every waiter and never cached.
func (m *Memory) Dedupe(ctx context.Context, key string, t Type, produce Producer) (any, error) {
	if v, ok := m.Get(key); ok {
		return v, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := m.flights.DoChan(key, func() (v any, err error) {
		// A flight that finished just before this one registered may have
		// stored the value already.
		if v, ok := m.lookup(key); ok {
			return v, nil
		}
		m.inFlight.Add(1)
		defer m.inFlight.Add(-1)
		// A panicking producer fails the flight, not the process.
		defer func() {
			if r := recover(); r != nil {
				m.log.Error().Str("key", key).Interface("panic", r).Msg("cache producer panicked")
				v, err = nil, fmt.Errorf("%w: %v", ErrProducerPanic, r)
			}
		}()

		v, err = produce(detached)
		if err != nil {
			return nil, err
		}
		m.Set(key, v, t)
		return v, nil
	})

	m.waiting.Add(1)
	defer m.waiting.Add(-1)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			m.shared.Add(1)
		}
		return res.Val, res.Err
	}
}

// Delete removes key if present.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.items[key]; ok {
		m.remove(el)
	}
}

// Clear drops every entry.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]*list.Element)
	m.order.Init()
}

// Len counts stored entries, including expired ones not yet reclaimed.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func (m *Memory) Stats() Stats {
	return Stats{
		Entries:  m.Len(),
		Hits:     m.hits.Load(),
		Misses:   m.misses.Load(),
		InFlight: m.inFlight.Load(),
		Waiting:  m.waiting.Load(),
		Shared:   m.shared.Load(),
	}
}

// Close stops the janitor and empties the cache. Afterwards reads miss and
// writes are dropped; Dedupe still runs producers, uncached.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	close(m.done)
	m.items = make(map[string]*list.Element)
	m.order.Init()
	return nil
}

// Prune removes expired entries and reports how many were dropped.
func (m *Memory) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	n := 0
	for el := m.order.Back(); el != nil; {
		prev := el.Prev()
		if isExpired(el.Value.(*entry), now) {
			m.remove(el)
			n++
		}
		el = prev
	}
	return n
}

func (m *Memory) lookup(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false
	}
	el, ok := m.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if isExpired(e, m.clock.Now()) {
		m.remove(el)
		return nil, false
	}
	m.order.MoveToFront(el)
	return e.value, true
}

// store must be called with mu held.
func (m *Memory) store(key string, value any, t Type, now time.Time) {
	if m.closed {
		return
	}
	e := &entry{key: key, value: value, typ: t, expiresAt: now.Add(m.policy.TTL(t))}
	if el, ok := m.items[key]; ok {
		el.Value = e
		m.order.MoveToFront(el)
		return
	}
	m.items[key] = m.order.PushFront(e)
	if m.maxEntries > 0 && m.order.Len() > m.maxEntries {
		if oldest := m.order.Back(); oldest != nil {
			m.remove(oldest)
		}
	}
}

// remove must be called with mu held.
func (m *Memory) remove(el *list.Element) {
	m.order.Remove(el)
	delete(m.items, el.Value.(*entry).key)
}

func isExpired(e *entry, now time.Time) bool {
	return !now.Before(e.expiresAt)
}

func (m *Memory) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if n := m.Prune(); n > 0 {
				m.log.Debug().Int("expired", n).Msg("cache pruned")
			}
		case <-m.done:
			return
		}
	}
}
