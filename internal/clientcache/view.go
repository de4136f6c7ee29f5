package clientcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrSuperseded is returned by View.Load when another key became active
	// before the response arrived.
	ErrSuperseded = errors.New("clientcache: response superseded")
	// ErrNoFetcher is returned by Get when neither the caller nor an earlier
	// Get supplied a fetch function for a non-fresh key.
	ErrNoFetcher = errors.New("clientcache: no fetcher registered")
)

// View is one consumer slot, such as the listing a screen is showing. Only
// the most recently requested key is applied to it.
type View struct {
	cache *Cache

	mu     sync.Mutex
	active string
}

// NewView creates a view reading through c.
func (c *Cache) NewView() *View {
	return &View{cache: c}
}

// Active returns the canonical form of the key the view is showing.
func (v *View) Active() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active
}

// Load makes key the active key and reads it through the cache. If a later
// Load switched the view to a different key while this one was waiting, the
// result is dropped and ErrSuperseded is returned.
func (v *View) Load(ctx context.Context, key Key, fetch FetchFunc) (any, error) {
	k := key.String()

	v.mu.Lock()
	v.active = k
	v.mu.Unlock()

	val, err := v.cache.Get(ctx, key, fetch)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.active != k {
		return nil, ErrSuperseded
	}
	return val, err
}

// Get is a typed wrapper around Cache.Get.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	return typed[T](c.Get(ctx, key, erase(fetch)))
}

// Load is a typed wrapper around View.Load.
func Load[T any](ctx context.Context, v *View, key Key, fetch func(context.Context) (T, error)) (T, error) {
	return typed[T](v.Load(ctx, key, erase(fetch)))
}

func erase[T any](fetch func(context.Context) (T, error)) FetchFunc {
	if fetch == nil {
		return nil
	}
	return func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}
}

func typed[T any](val any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	out, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("clientcache: cached value is %T, not %T", val, zero)
	}
	return out, nil
}
