package clientcache

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitForState(t *testing.T, c *Cache, key Key, want State) Entry {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		entry, _ := c.Peek(key)
		if entry.State == want {
			return entry
		}
		if time.Now().After(deadline) {
			t.Fatalf("state of %s = %s, want %s", key, entry.State, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestKey_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  Key
		want string
	}{
		{"entity", EntityKey("posts", "12"), "posts:12"},
		{"bare collection", CollectionKey("posts", nil), "posts:"},
		{
			"params sorted",
			CollectionKey("posts", url.Values{"search": {"go"}, "page": {"2"}, "author": {"3"}}),
			"posts:?author=3&page=2&search=go",
		},
		{"empty params dropped", CollectionKey("posts", url.Values{"search": {""}, "page": {"1"}}), "posts:?page=1"},
		{"only empty params", CollectionKey("posts", url.Values{"search": {""}}), "posts:"},
		{"escaped", CollectionKey("posts", url.Values{"search": {"a b&c"}}), "posts:?search=a+b%26c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_IsCollection(t *testing.T) {
	t.Parallel()

	if EntityKey("posts", "1").IsCollection() {
		t.Error("entity key reported as collection")
	}
	if !CollectionKey("posts", nil).IsCollection() {
		t.Error("collection key not reported as collection")
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()

	want := map[State]string{
		StateEmpty:   "empty",
		StateLoading: "loading",
		StateFresh:   "fresh",
		StateStale:   "stale",
		StateError:   "error",
		State(42):    "unknown",
	}
	for state, s := range want {
		if state.String() != s {
			t.Errorf("State(%d).String() = %q, want %q", state, state.String(), s)
		}
	}
}

func TestGet_ReturnsFreshValueWithoutFetching(t *testing.T) {
	t.Parallel()

	c := New()
	key := EntityKey("posts", "1")

	var calls atomic.Int32
	fetch := func(context.Context) (any, error) {
		calls.Add(1)
		return "post one", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.Get(context.Background(), key, fetch)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if v != "post one" {
			t.Fatalf("Get = %v, want post one", v)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("fetch called %d times, want 1", calls.Load())
	}

	entry, ok := c.Peek(key)
	if !ok || entry.State != StateFresh {
		t.Errorf("Peek = %+v, %v; want fresh entry", entry, ok)
	}
	if entry.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestGet_SharesInFlightFetch(t *testing.T) {
	t.Parallel()

	c := New()
	key := CollectionKey("posts", url.Values{"page": {"1"}})

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(context.Context) (any, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return "page one", nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]any, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Get(context.Background(), key, fetch)
			if err != nil {
				t.Errorf("Get: %v", err)
			}
			results[i] = v
		}(i)
	}

	<-started
	if entry, _ := c.Peek(key); entry.State != StateLoading {
		t.Errorf("state during fetch = %s, want loading", entry.State)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("fetch called %d times, want 1", calls.Load())
	}
	for i, v := range results {
		if v != "page one" {
			t.Errorf("caller %d got %v", i, v)
		}
	}
}

func TestGet_NoFetcher(t *testing.T) {
	t.Parallel()

	c := New()
	if _, err := c.Get(context.Background(), EntityKey("posts", "1"), nil); !errors.Is(err, ErrNoFetcher) {
		t.Errorf("Get without fetcher error = %v, want ErrNoFetcher", err)
	}
}

func TestGet_CallerCancelDoesNotAbortSharedFetch(t *testing.T) {
	t.Parallel()

	c := New()
	key := EntityKey("posts", "9")
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return "nine", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, key, fetch)
		errCh <- err
	}()

	<-started
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Get error = %v, want context.Canceled", err)
	}

	close(release)
	entry := waitForState(t, c, key, StateFresh)
	if entry.Value != "nine" {
		t.Errorf("cached value = %v, want nine", entry.Value)
	}
}

func TestGet_ErrorStateRetriedOnlyByConsumer(t *testing.T) {
	t.Parallel()

	c := New()
	key := EntityKey("posts", "3")
	boom := errors.New("connection refused")

	var calls atomic.Int32
	fetch := func(context.Context) (any, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return "three", nil
	}

	if _, err := c.Get(context.Background(), key, fetch); !errors.Is(err, boom) {
		t.Fatalf("first Get error = %v, want %v", err, boom)
	}
	entry, _ := c.Peek(key)
	if entry.State != StateError || !errors.Is(entry.Err, boom) {
		t.Fatalf("entry after failure = %+v, want error state", entry)
	}

	c.Invalidate("posts", "3")
	c.Wait()
	if entry, _ := c.Peek(key); entry.State != StateError {
		t.Errorf("invalidate moved error entry to %s", entry.State)
	}
	if calls.Load() != 1 {
		t.Errorf("fetch called %d times before retry, want 1", calls.Load())
	}

	v, err := c.Get(context.Background(), key, fetch)
	if err != nil {
		t.Fatalf("retry Get: %v", err)
	}
	if v != "three" {
		t.Errorf("retry Get = %v, want three", v)
	}
	entry, _ = c.Peek(key)
	if entry.State != StateFresh || entry.Err != nil {
		t.Errorf("entry after retry = %+v, want fresh without error", entry)
	}
}

func TestInvalidate_MarksEntityAndCollections(t *testing.T) {
	t.Parallel()

	c := New()
	post1 := EntityKey("posts", "1")
	post2 := EntityKey("posts", "2")
	page1 := CollectionKey("posts", url.Values{"page": {"1"}})
	search := CollectionKey("posts", url.Values{"search": {"go"}})
	user := EntityKey("users", "1")

	for _, k := range []Key{post1, post2, page1, search, user} {
		c.Set(k, k.String())
	}

	c.Invalidate("posts", "1")

	want := map[Key]State{
		post1:  StateStale,
		post2:  StateFresh,
		page1:  StateStale,
		search: StateStale,
		user:   StateFresh,
	}
	for k, state := range want {
		entry, ok := c.Peek(k)
		if !ok {
			t.Fatalf("entry %s missing", k)
		}
		if entry.State != state {
			t.Errorf("%s state = %s, want %s", k, entry.State, state)
		}
		if entry.Value != k.String() {
			t.Errorf("%s value = %v, stale entries must keep their value", k, entry.Value)
		}
	}
}

func TestInvalidateResource(t *testing.T) {
	t.Parallel()

	c := New()
	post := EntityKey("posts", "1")
	list := CollectionKey("posts", nil)
	user := EntityKey("users", "1")
	for _, k := range []Key{post, list, user} {
		c.Set(k, 1)
	}

	c.InvalidateResource("posts")

	for _, k := range []Key{post, list} {
		if entry, _ := c.Peek(k); entry.State != StateStale {
			t.Errorf("%s state = %s, want stale", k, entry.State)
		}
	}
	if entry, _ := c.Peek(user); entry.State != StateFresh {
		t.Errorf("users entry state = %s, want fresh", entry.State)
	}
}

func TestInvalidate_StaleRefetchedOnNextGet(t *testing.T) {
	t.Parallel()

	c := New()
	key := EntityKey("posts", "5")
	c.Set(key, "old")
	c.Invalidate("posts", "5")

	v, err := c.Get(context.Background(), key, func(context.Context) (any, error) {
		return "new", nil
	})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != "new" {
		t.Errorf("Get = %v, want new", v)
	}
}

func TestInvalidate_BackgroundRefetch(t *testing.T) {
	t.Parallel()

	c := New()
	key := CollectionKey("posts", url.Values{"page": {"1"}})

	var calls atomic.Int32
	fetch := func(context.Context) (any, error) {
		return calls.Add(1), nil
	}

	if _, err := c.Get(context.Background(), key, fetch); err != nil {
		t.Fatalf("Get: %v", err)
	}

	c.Invalidate("posts", "7")
	c.Wait()

	entry, _ := c.Peek(key)
	if entry.State != StateFresh {
		t.Fatalf("state after refetch = %s, want fresh", entry.State)
	}
	if entry.Value != int32(2) {
		t.Errorf("value after refetch = %v, want 2", entry.Value)
	}
}

func TestWithRefetchTimeout_BoundsBackgroundFetch(t *testing.T) {
	t.Parallel()

	c := New(WithRefetchTimeout(50 * time.Millisecond))
	key := EntityKey("posts", "3")

	var calls atomic.Int32
	var sawDeadline atomic.Bool
	var fetchErr atomic.Value
	fetch := func(ctx context.Context) (any, error) {
		if calls.Add(1) == 1 {
			return "v1", nil
		}
		_, ok := ctx.Deadline()
		sawDeadline.Store(ok)
		<-ctx.Done()
		fetchErr.Store(ctx.Err())
		return nil, ctx.Err()
	}

	if _, err := c.Get(context.Background(), key, fetch); err != nil {
		t.Fatalf("Get: %v", err)
	}

	c.Invalidate("posts", "3")
	c.Wait()

	if !sawDeadline.Load() {
		t.Error("background fetch ran without a deadline")
	}
	if err, _ := fetchErr.Load().(error); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("fetch context error = %v, want deadline exceeded", err)
	}
	entry, _ := c.Peek(key)
	if entry.State != StateError {
		t.Errorf("state = %s, want error", entry.State)
	}
}

func TestInvalidate_DuringFetchKeepsEntryStale(t *testing.T) {
	t.Parallel()

	c := New()
	key := EntityKey("posts", "4")

	var calls atomic.Int32
	started := make(chan struct{})
	releaseFirst := make(chan struct{})
	releaseSecond := make(chan struct{})
	fetch := func(context.Context) (any, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-releaseFirst
			return "before edit", nil
		}
		<-releaseSecond
		return "after edit", nil
	}

	done := make(chan any, 1)
	go func() {
		v, err := c.Get(context.Background(), key, fetch)
		if err != nil {
			t.Errorf("Get: %v", err)
		}
		done <- v
	}()

	<-started
	c.Invalidate("posts", "4")
	close(releaseFirst)

	if v := <-done; v != "before edit" {
		t.Errorf("Get = %v, want before edit", v)
	}

	entry, _ := c.Peek(key)
	if entry.State == StateFresh {
		t.Fatal("fetch started before invalidation marked the entry fresh")
	}
	if entry.Value != "before edit" {
		t.Errorf("value = %v, want before edit", entry.Value)
	}

	close(releaseSecond)
	c.Wait()

	entry, _ = c.Peek(key)
	if entry.State != StateFresh || entry.Value != "after edit" {
		t.Errorf("entry after refetch = %+v, want fresh after edit", entry)
	}
	if calls.Load() != 2 {
		t.Errorf("fetch called %d times, want 2", calls.Load())
	}
}

func TestSet_WinsOverInFlightFetch(t *testing.T) {
	t.Parallel()

	c := New()
	key := EntityKey("posts", "6")
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Get(context.Background(), key, func(context.Context) (any, error) {
			close(started)
			<-release
			return "server copy", nil
		})
	}()

	<-started
	c.Set(key, "local copy")
	close(release)
	<-done

	entry, _ := c.Peek(key)
	if entry.State != StateFresh || entry.Value != "local copy" {
		t.Errorf("entry = %+v, want fresh local copy", entry)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	c := New()
	key := EntityKey("posts", "8")
	c.Set(key, "eight")
	c.Remove(key)

	if entry, ok := c.Peek(key); ok || entry.State != StateEmpty {
		t.Errorf("Peek after Remove = %+v, %v; want empty", entry, ok)
	}
}

func TestWithClock(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := New(WithClock(func() time.Time { return fixed }))
	key := EntityKey("posts", "1")
	c.Set(key, 1)

	if entry, _ := c.Peek(key); !entry.UpdatedAt.Equal(fixed) {
		t.Errorf("UpdatedAt = %v, want %v", entry.UpdatedAt, fixed)
	}
}
