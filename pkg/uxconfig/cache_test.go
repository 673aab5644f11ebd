package uxconfig

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/ats-console/pkg/backend"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeSource answers UXConfig from respond and counts calls. When gate is
// non-nil every call blocks until it receives a value.
type fakeSource struct {
	org, user string
	calls     int32
	gate      chan struct{}
	started   chan struct{}
	respond   func(n int32, module string) (*backend.UXConfigResponse, error)
}

func (s *fakeSource) Identity() (string, string) { return s.org, s.user }

func (s *fakeSource) UXConfig(ctx context.Context, module string) (*backend.UXConfigResponse, error) {
	n := atomic.AddInt32(&s.calls, 1)
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
	return s.respond(n, module)
}

func (s *fakeSource) Calls() int32 { return atomic.LoadInt32(&s.calls) }

func themed(theme backend.Theme) func(int32, string) (*backend.UXConfigResponse, error) {
	return func(_ int32, module string) (*backend.UXConfigResponse, error) {
		t := theme
		return &backend.UXConfigResponse{Module: module, Config: backend.UXModuleConfig{Theme: &t}}, nil
	}
}

func TestCache_ConcurrentGetsShareOneFetch(t *testing.T) {
	src := &fakeSource{
		org: "o", user: "u",
		gate:    make(chan struct{}),
		started: make(chan struct{}, 2),
		respond: themed(backend.ThemeLight),
	}
	cache := New(src)

	var wg sync.WaitGroup
	results := make([]*backend.UXConfigResponse, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Get(context.Background(), "dashboard", Options{})
		}(i)
	}

	<-src.started
	// give the second caller time to join the in-flight fetch
	require.Eventually(t, func() bool {
		cache.mu.Lock()
		defer cache.mu.Unlock()
		return cache.inflight[Key{"o", "u", "dashboard"}] == 1
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int32(1), src.Calls())
	assert.Equal(t, results[0], results[1])
}

func TestCache_ConcurrentGetsOverHTTP(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"module":"applications","config":{"layout":"dense","flags":{"kanban":true}}}`))
	}))
	t.Cleanup(srv.Close)

	client, err := backend.New(srv.URL, backend.WithIdentity("org-1", "user-1"))
	require.NoError(t, err)
	cache := New(client)

	var wg sync.WaitGroup
	results := make(chan *backend.UXConfigResponse, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := cache.Get(context.Background(), "applications", Options{})
			assert.NoError(t, err)
			results <- v
		}()
	}
	require.Eventually(t, func() bool { return atomic.LoadInt32(&hits) == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	first, second := <-results, <-results
	assert.Equal(t, first, second)
	assert.True(t, first.Config.Flag("kanban"))
}

func TestCache_FreshEntryServedWithoutFetch(t *testing.T) {
	clock := newFakeClock()
	src := &fakeSource{org: "o", user: "u", respond: themed(backend.ThemeDark)}
	cache := New(src, WithClock(clock))

	first, err := cache.Get(context.Background(), "dashboard", Options{})
	require.NoError(t, err)
	clock.Advance(DefaultTTL - time.Millisecond)
	second, err := cache.Get(context.Background(), " dashboard ", Options{})
	require.NoError(t, err)

	assert.Equal(t, int32(1), src.Calls())
	assert.Equal(t, first, second)
}

func TestCache_ExpiredEntryRefetches(t *testing.T) {
	clock := newFakeClock()
	src := &fakeSource{org: "o", user: "u", respond: themed(backend.ThemeDark)}
	cache := New(src, WithClock(clock), WithTTL(time.Minute))

	_, err := cache.Get(context.Background(), "dashboard", Options{})
	require.NoError(t, err)
	clock.Advance(time.Minute)

	res, err := cache.Cached("o", "u", "dashboard")
	require.NoError(t, err)
	assert.False(t, res.Fresh)
	assert.NotNil(t, res.Data, "stale data stays readable")

	_, err = cache.Get(context.Background(), "dashboard", Options{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.Calls())
}

func TestCache_PerCallTTL(t *testing.T) {
	clock := newFakeClock()
	src := &fakeSource{org: "o", user: "u", respond: themed(backend.ThemeDark)}
	cache := New(src, WithClock(clock))

	_, err := cache.Get(context.Background(), "dashboard", Options{TTL: time.Second})
	require.NoError(t, err)

	res, err := cache.Cached("o", "u", "dashboard")
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(time.Second), res.ExpiresAt)
	assert.True(t, res.Fresh)
}

func TestCache_FailedRefreshKeepsPreviousValue(t *testing.T) {
	clock := newFakeClock()
	boom := errors.New("backend down")
	src := &fakeSource{org: "o", user: "u"}
	src.respond = func(n int32, module string) (*backend.UXConfigResponse, error) {
		if n > 1 {
			return nil, boom
		}
		return themed(backend.ThemeDefense)(n, module)
	}
	cache := New(src, WithClock(clock))

	_, err := cache.Get(context.Background(), "dashboard", Options{})
	require.NoError(t, err)

	_, err = cache.Get(context.Background(), "dashboard", Options{ForceRefresh: true})
	require.ErrorIs(t, err, boom)

	res, err := cache.Cached("o", "u", "dashboard")
	require.NoError(t, err)
	require.NotNil(t, res.Data)
	assert.Equal(t, backend.ThemeDefense, *res.Data.Config.Theme)
	assert.True(t, res.Fresh)

	// the in-flight marker was cleared: the next forced call fetches again
	_, err = cache.Get(context.Background(), "dashboard", Options{ForceRefresh: true})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(3), src.Calls())
}

func TestCache_ForceRefreshBypassesFreshEntry(t *testing.T) {
	src := &fakeSource{org: "o", user: "u", respond: themed(backend.ThemeLight)}
	cache := New(src)

	_, err := cache.Get(context.Background(), "dashboard", Options{})
	require.NoError(t, err)
	_, err = cache.Get(context.Background(), "dashboard", Options{ForceRefresh: true})
	require.NoError(t, err)

	assert.Equal(t, int32(2), src.Calls())
}

func TestCache_InvalidateThenCachedIsMiss(t *testing.T) {
	src := &fakeSource{org: "o", user: "u", respond: themed(backend.ThemeLight)}
	cache := New(src)
	_, err := cache.Get(context.Background(), "dashboard", Options{})
	require.NoError(t, err)

	require.NoError(t, cache.Invalidate("o", "u", "dashboard"))

	res, err := cache.Cached("o", "u", "dashboard")
	require.NoError(t, err)
	assert.Nil(t, res.Data)
	assert.False(t, res.Fresh)
	assert.True(t, res.ExpiresAt.IsZero())
}

func TestCache_InvalidateDuringFetchDropsResult(t *testing.T) {
	src := &fakeSource{
		org: "o", user: "u",
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
		respond: themed(backend.ThemeLight),
	}
	cache := New(src)

	done := make(chan error, 1)
	go func() {
		_, err := cache.Get(context.Background(), "dashboard", Options{})
		done <- err
	}()
	<-src.started
	require.NoError(t, cache.Invalidate("o", "u", "dashboard"))
	close(src.gate)
	require.NoError(t, <-done)

	res, err := cache.Cached("o", "u", "dashboard")
	require.NoError(t, err)
	assert.Nil(t, res.Data)
}

func TestCache_InvalidateModuleAndClear(t *testing.T) {
	src := &fakeSource{org: "o", user: "u", respond: themed(backend.ThemeLight)}
	cache := New(src)
	for _, m := range []string{"dashboard", "applications"} {
		_, err := cache.Get(context.Background(), m, Options{})
		require.NoError(t, err)
	}
	require.Equal(t, 2, cache.Len())

	require.NoError(t, cache.InvalidateModule("dashboard"))
	assert.Equal(t, 1, cache.Len())

	cache.Clear()
	assert.Zero(t, cache.Len())
}

func TestCache_CallerCancellationDoesNotAbortFetch(t *testing.T) {
	src := &fakeSource{
		org: "o", user: "u",
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
		respond: themed(backend.ThemeDark),
	}
	cache := New(src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := cache.Get(ctx, "dashboard", Options{})
		done <- err
	}()
	<-src.started
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(src.gate)
	require.Eventually(t, func() bool {
		res, err := cache.Cached("o", "u", "dashboard")
		return err == nil && res.Data != nil
	}, time.Second, time.Millisecond)
}

func TestCache_Preconditions(t *testing.T) {
	t.Run("blank module", func(t *testing.T) {
		cache := New(&fakeSource{org: "o", user: "u"})
		_, err := cache.Get(context.Background(), "   ", Options{})
		require.ErrorIs(t, err, ErrModuleRequired)
		_, err = cache.Cached("o", "u", "")
		require.ErrorIs(t, err, ErrModuleRequired)
	})

	t.Run("missing identity", func(t *testing.T) {
		src := &fakeSource{org: "o", user: ""}
		cache := New(src)
		_, err := cache.Get(context.Background(), "dashboard", Options{})
		require.ErrorIs(t, err, ErrMissingIdentity)
		assert.True(t, backend.IsMissingIdentity(err))
		assert.Zero(t, src.Calls())
	})

	t.Run("no backend", func(t *testing.T) {
		cache := New(nil)
		_, err := cache.Get(context.Background(), "dashboard", Options{})
		require.ErrorIs(t, err, ErrMissingBaseURL)
	})
}

func TestCache_NormalizesSourceResponse(t *testing.T) {
	src := &fakeSource{org: "o", user: "u"}
	src.respond = func(int32, string) (*backend.UXConfigResponse, error) {
		l := backend.Layout("sideways")
		return &backend.UXConfigResponse{Config: backend.UXModuleConfig{Layout: &l, Flags: map[string]bool{}}}, nil
	}
	cache := New(src)

	got, err := cache.Get(context.Background(), "dashboard", Options{})
	require.NoError(t, err)
	assert.Equal(t, "dashboard", got.Module)
	assert.Nil(t, got.Config.Layout)
	assert.Nil(t, got.Config.Flags)
}

func TestCache_ReturnedValuesAreCopies(t *testing.T) {
	src := &fakeSource{org: "o", user: "u"}
	src.respond = func(_ int32, module string) (*backend.UXConfigResponse, error) {
		return &backend.UXConfigResponse{Module: module, Config: backend.UXModuleConfig{Flags: map[string]bool{"a": true}}}, nil
	}
	cache := New(src)

	got, err := cache.Get(context.Background(), "dashboard", Options{})
	require.NoError(t, err)
	got.Config.Flags["a"] = false

	res, err := cache.Cached("o", "u", "dashboard")
	require.NoError(t, err)
	assert.True(t, res.Data.Config.Flag("a"))
}
