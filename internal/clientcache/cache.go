// Package clientcache keeps API resources on the client side, keyed by
// resource, id and query parameters. Reads are deduplicated per key and
// mutations mark affected entries stale so they are fetched again.
package clientcache

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// State is the lifecycle position of a cache entry.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateFresh
	StateStale
	StateError
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Key identifies a cached resource. An empty ID denotes a collection, in
// which case Params distinguishes pages and filters.
type Key struct {
	Resource string
	ID       string
	Params   url.Values
}

// EntityKey addresses a single resource.
func EntityKey(resource, id string) Key {
	return Key{Resource: resource, ID: id}
}

// CollectionKey addresses a listing of resource filtered by params.
func CollectionKey(resource string, params url.Values) Key {
	return Key{Resource: resource, Params: params}
}

// IsCollection reports whether the key addresses a listing.
func (k Key) IsCollection() bool {
	return k.ID == ""
}

// String returns the canonical form resource:id?params with params sorted
// by name. Empty parameter values are dropped.
func (k Key) String() string {
	s := k.Resource + ":" + k.ID
	if len(k.Params) == 0 {
		return s
	}
	clean := url.Values{}
	for name, values := range k.Params {
		for _, v := range values {
			if v != "" {
				clean.Add(name, v)
			}
		}
	}
	if len(clean) == 0 {
		return s
	}
	return s + "?" + clean.Encode()
}

// FetchFunc loads the value for a key from its source.
type FetchFunc func(ctx context.Context) (any, error)

// Entry is a point-in-time copy of a cache entry.
type Entry struct {
	State     State
	Value     any
	Err       error
	UpdatedAt time.Time
}

type entry struct {
	key       Key
	state     State
	value     any
	err       error
	updatedAt time.Time
	// gen increments on every invalidation. A fetch only marks the entry
	// fresh if gen is unchanged since it started.
	gen     uint64
	refetch FetchFunc
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	wg      sync.WaitGroup

	logger         *slog.Logger
	now            func() time.Time
	refetchTimeout time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for background refetch failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRefetchTimeout bounds every fetch the cache runs, shared or background.
func WithRefetchTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.refetchTimeout = d
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:        make(map[string]*entry),
		logger:         slog.Default(),
		now:            time.Now,
		refetchTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value when it is fresh. Otherwise it fetches,
// sharing a single in-flight fetch between concurrent callers of the same
// key. fetch is remembered as the key's refetcher for background refreshes
// after invalidation.
func (c *Cache) Get(ctx context.Context, key Key, fetch FetchFunc) (any, error) {
	k := key.String()

	c.mu.Lock()
	e, ok := c.entries[k]
	if !ok {
		e = &entry{key: key}
		c.entries[k] = e
	}
	if fetch != nil {
		e.refetch = fetch
	}
	if e.state == StateFresh {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	fetch = e.refetch
	c.mu.Unlock()

	if fetch == nil {
		return nil, ErrNoFetcher
	}
	return c.load(ctx, k, e, fetch)
}

// load runs fetch for e through the singleflight group. The fetch itself is
// detached from ctx so one caller giving up does not fail the others, and
// runs under the cache's refetch timeout instead.
func (c *Cache) load(ctx context.Context, k string, e *entry, fetch FetchFunc) (any, error) {
	ch := c.group.DoChan(k, func() (any, error) {
		c.mu.Lock()
		gen := e.gen
		e.state = StateLoading
		c.mu.Unlock()

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refetchTimeout)
		v, err := fetch(fetchCtx)
		cancel()

		c.mu.Lock()
		superseded := e.gen != gen
		switch {
		case superseded && e.state == StateFresh:
			// Set replaced the value while the fetch ran.
		case superseded:
			if err == nil {
				e.value = v
				e.updatedAt = c.now()
			}
			e.state = StateStale
		case err != nil:
			e.state = StateError
			e.err = err
		default:
			e.state = StateFresh
			e.value = v
			e.err = nil
			e.updatedAt = c.now()
		}
		again := superseded && e.state == StateStale && e.refetch != nil && c.entries[k] == e
		c.mu.Unlock()

		if again {
			c.group.Forget(k)
			c.scheduleRefetch(k, e)
		}
		return v, err
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Set stores v as the fresh value for key, superseding any fetch in flight.
func (c *Cache) Set(key Key, v any) {
	k := key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	if !ok {
		e = &entry{key: key}
		c.entries[k] = e
	}
	e.gen++
	e.state = StateFresh
	e.value = v
	e.err = nil
	e.updatedAt = c.now()
}

// Peek returns a copy of the entry for key without fetching.
func (c *Cache) Peek(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return Entry{State: StateEmpty}, false
	}
	return Entry{State: e.state, Value: e.value, Err: e.err, UpdatedAt: e.updatedAt}, true
}

// Invalidate marks the entry for resource id stale together with every
// collection entry of the same resource.
func (c *Cache) Invalidate(resource, id string) {
	c.invalidate(func(k Key) bool {
		return k.Resource == resource && (k.ID == id || k.IsCollection())
	})
}

// InvalidateResource marks every entry of resource stale.
func (c *Cache) InvalidateResource(resource string) {
	c.invalidate(func(k Key) bool {
		return k.Resource == resource
	})
}

// Remove drops the entry for key. A fetch already running for it completes
// without touching the cache.
func (c *Cache) Remove(key Key) {
	k := key.String()

	c.mu.Lock()
	delete(c.entries, k)
	c.mu.Unlock()

	c.group.Forget(k)
}

// Wait blocks until background refetches have finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

func (c *Cache) invalidate(match func(Key) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if !match(e.key) {
			continue
		}
		e.gen++
		if e.state != StateFresh {
			// Loading entries pick up the bumped generation when their fetch
			// lands. Empty and error entries wait for a consumer.
			continue
		}
		e.state = StateStale
		if e.refetch != nil {
			c.scheduleRefetch(k, e)
		}
	}
}

func (c *Cache) scheduleRefetch(k string, e *entry) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		c.mu.Lock()
		fetch := e.refetch
		current := c.entries[k] == e
		c.mu.Unlock()
		if fetch == nil || !current {
			return
		}

		if _, err := c.load(context.Background(), k, e, fetch); err != nil {
			c.logger.Debug("background refetch failed", "key", k, "error", err)
		}
	}()
}
