// Package query caches the results of backend read calls per session.
//
// Entries are keyed by a query name and a scope (for the gate, the admin
// token the call was made with), so a result is only ever served for the
// exact scope that produced it. Entries are replaced, never mutated.
package query

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Status is the lifecycle state of a cache entry
type Status int

const (
	StatusIdle Status = iota // no entry: never requested, disabled or invalidated
	StatusPending
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Key identifies a cached result
type Key struct {
	Name  string
	Scope string
}

func (k Key) String() string {
	return k.Name + "\x00" + k.Scope
}

// Snapshot is a point-in-time copy of an entry
type Snapshot struct {
	Status    Status
	Value     any
	Err       error
	UpdatedAt time.Time
}

// Settled reports whether the entry holds a result or an error
func (s Snapshot) Settled() bool {
	return s.Status == StatusSuccess || s.Status == StatusError
}

// As returns the snapshot value as T
func As[T any](s Snapshot) (T, bool) {
	v, ok := s.Value.(T)
	return v, ok
}

// FetchFunc loads the value for one key
type FetchFunc func(ctx context.Context) (any, error)

type entry struct {
	snap Snapshot
	done chan struct{}
}

// Option configures a Cache
type Option func(*Cache)

// WithRetries sets how many times a failed read is retried
func WithRetries(n int) Option {
	return func(c *Cache) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithRetryIf limits retries to errors for which fn returns true
func WithRetryIf(fn func(error) bool) Option {
	return func(c *Cache) {
		c.retryIf = fn
	}
}

// Cache holds query results for one session
type Cache struct {
	retries int
	retryIf func(error) bool
	logger  zerolog.Logger
	group   singleflight.Group

	mu      sync.Mutex
	entries map[Key]*entry
}

// New creates an empty cache
func New(logger zerolog.Logger, opts ...Option) *Cache {
	c := &Cache{
		retries: 1,
		retryIf: func(error) bool { return true },
		logger:  logger,
		entries: make(map[Key]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Peek returns the entry for key without triggering a fetch
func (c *Cache) Peek(key Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		return e.snap
	}
	return Snapshot{Status: StatusIdle}
}

// Ensure returns the entry for key, starting a background fetch when there
// is none. The fetch outlives ctx's cancellation but keeps its values.
func (c *Cache) Ensure(ctx context.Context, key Key, fetch FetchFunc) Snapshot {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		snap := e.snap
		c.mu.Unlock()
		return snap
	}
	e := c.startLocked(key)
	c.mu.Unlock()

	go func() {
		value, err := c.attempt(context.WithoutCancel(ctx), key, fetch)
		c.settle(key, e, value, err)
	}()

	return Snapshot{Status: StatusPending}
}

// Wait blocks until the entry for key settles or ctx is done. A missing entry
// returns immediately with StatusIdle.
func (c *Cache) Wait(ctx context.Context, key Key) (Snapshot, error) {
	for {
		c.mu.Lock()
		e, ok := c.entries[key]
		if !ok || e.snap.Settled() {
			snap := Snapshot{Status: StatusIdle}
			if ok {
				snap = e.snap
			}
			c.mu.Unlock()
			return snap, nil
		}
		done := e.done
		c.mu.Unlock()

		select {
		case <-done:
			// The entry may have been replaced while we waited; look again.
		case <-ctx.Done():
			return c.Peek(key), ctx.Err()
		}
	}
}

// Refetch runs fetch now, ignoring any cached value, and stores the result.
// Concurrent Refetch calls for the same key share one request.
func (c *Cache) Refetch(ctx context.Context, key Key, fetch FetchFunc) (any, error) {
	value, err, _ := c.group.Do(key.String(), func() (any, error) {
		c.mu.Lock()
		e := c.startLocked(key)
		c.mu.Unlock()

		value, err := c.attempt(ctx, key, fetch)
		c.settle(key, e, value, err)
		return value, err
	})
	return value, err
}

// Invalidate drops the entry for key. A fetch still in flight for the dropped
// entry completes but its result is discarded.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	c.logger.Debug().Str("query", key.Name).Msg("Query invalidated")
}

// Clear drops every entry
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[Key]*entry)
	c.mu.Unlock()
}

func (c *Cache) startLocked(key Key) *entry {
	e := &entry{
		snap: Snapshot{Status: StatusPending},
		done: make(chan struct{}),
	}
	c.entries[key] = e
	return e
}

func (c *Cache) attempt(ctx context.Context, key Key, fetch FetchFunc) (any, error) {
	var (
		value any
		err   error
	)
	for try := 0; try <= c.retries; try++ {
		value, err = fetch(ctx)
		if err == nil {
			return value, nil
		}
		if ctx.Err() != nil || !c.retryIf(err) {
			break
		}
		c.logger.Debug().Err(err).Str("query", key.Name).Int("attempt", try+1).Msg("Query failed")
	}
	return nil, err
}

func (c *Cache) settle(key Key, e *entry, value any, err error) {
	snap := Snapshot{UpdatedAt: time.Now()}
	if err != nil {
		snap.Status = StatusError
		snap.Err = err
	} else {
		snap.Status = StatusSuccess
		snap.Value = value
	}

	c.mu.Lock()
	e.snap = snap
	if c.entries[key] != e {
		c.logger.Debug().Str("query", key.Name).Msg("Discarding result for invalidated query")
	}
	c.mu.Unlock()

	close(e.done)
}
