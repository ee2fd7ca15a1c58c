package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestCache_GetPut(t *testing.T) {
	c := New(0)
	k := Key{Op: "overview", Args: "2017-01-01..2017-12-31|*"}

	_, ok := c.Get(k)
	assert.False(t, ok)

	c.Put(k, 42)
	v, ok := c.Get(k)
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, Stats{Hits: 1, Misses: 1}, c.Stats())
}

func TestCache_TTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(time.Minute, WithClock(clock.Now))
	k := Key{Op: "regions"}

	c.Put(k, []string{"SP"})
	clock.Advance(59 * time.Second)
	_, ok := c.Get(k)
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get(k)
	assert.False(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	c := New(0)
	c.Put(Key{Op: "overview", Args: "a"}, 1)
	c.Put(Key{Op: "overview", Args: "b"}, 2)
	c.Put(Key{Op: "series", Args: "a"}, 3)

	assert.Equal(t, 2, c.Invalidate("overview"))
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(Key{Op: "series", Args: "a"})
	assert.True(t, ok)

	assert.Equal(t, 1, c.InvalidateAll())
	assert.Equal(t, 0, c.Len())
}

func TestCache_LoadCachesSuccess(t *testing.T) {
	c := New(0)
	k := Key{Op: "bounds"}
	calls := 0
	fn := func(context.Context) (any, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.Load(context.Background(), k, fn)
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, 1, calls)
}

func TestCache_LoadDoesNotCacheErrors(t *testing.T) {
	c := New(0)
	k := Key{Op: "bounds"}
	boom := errors.New("boom")
	calls := 0
	fn := func(context.Context) (any, error) {
		calls++
		return nil, boom
	}

	_, err := c.Load(context.Background(), k, fn)
	require.ErrorIs(t, err, boom)
	_, err = c.Load(context.Background(), k, fn)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, c.Len())
}

func TestCache_LoadCollapsesConcurrentCalls(t *testing.T) {
	c := New(0)
	k := Key{Op: "customers", Args: "x"}
	var calls atomic.Int32
	release := make(chan struct{})

	fn := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			v, err := c.Load(context.Background(), k, fn)
			assert.NoError(t, err)
			results[idx] = v
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 7, v)
	}
}

func TestCache_LoadSurvivesLeaderCancellation(t *testing.T) {
	c := New(0)
	k := Key{Op: "overview", Args: "2017-01-01..2017-01-31|*"}
	started := make(chan struct{})
	release := make(chan struct{})
	var loadErr atomic.Value

	fn := func(ctx context.Context) (any, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			loadErr.Store(err)
			return nil, err
		}
		return 42, nil
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err := c.Load(leaderCtx, k, fn)
		leaderDone <- err
	}()
	<-started

	followerDone := make(chan any, 1)
	go func() {
		v, err := c.Load(context.Background(), k, fn)
		assert.NoError(t, err)
		followerDone <- v
	}()

	cancel()
	select {
	case err := <-leaderDone:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting on the shared load")
	}

	close(release)
	select {
	case v := <-followerDone:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("follower never received the shared result")
	}
	assert.Nil(t, loadErr.Load())

	v, ok := c.Get(k)
	require.True(t, ok)
	assert.Equal(t, 42, v)
}
