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

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)}
}

func TestCache_PutThenGet(t *testing.T) {
	c := New(nil, time.Second, nil)
	ctx := context.Background()

	_, ok := c.Get(ctx, "scan")
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "scan", []byte(`{"tokens":[]}`)))

	got, ok := c.Get(ctx, "scan")
	require.True(t, ok)
	assert.JSONEq(t, `{"tokens":[]}`, string(got))
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	clock := newClock()
	c := New(NewMemoryBackend(clock.Now), 15*time.Second, nil)
	ctx := context.Background()

	var loads atomic.Int32
	load := func(ctx context.Context) ([]byte, error) {
		n := loads.Add(1)
		return []byte{byte('0' + n)}, nil
	}

	first, hit, err := c.GetOrLoad(ctx, "scan", load)
	require.NoError(t, err)
	assert.False(t, hit)

	clock.Advance(14 * time.Second)
	second, hit, err := c.GetOrLoad(ctx, "scan", load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second, "same payload within TTL")

	clock.Advance(2 * time.Second)
	third, hit, err := c.GetOrLoad(ctx, "scan", load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotEqual(t, first, third, "regenerated after TTL")
	assert.Equal(t, int32(2), loads.Load())
}

func TestCache_SingleFlight(t *testing.T) {
	c := New(nil, time.Minute, nil)

	var loads atomic.Int32
	release := make(chan struct{})
	load := func(ctx context.Context) ([]byte, error) {
		loads.Add(1)
		<-release
		return []byte("payload"), nil
	}

	const callers = 16
	var wg sync.WaitGroup
	results := make([][]byte, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = c.GetOrLoad(context.Background(), "scan", load)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "payload", string(results[i]))
	}
}

func TestCache_LoadErrorNotCached(t *testing.T) {
	c := New(nil, time.Minute, nil)
	ctx := context.Background()
	boom := errors.New("boom")

	_, _, err := c.GetOrLoad(ctx, "scan", func(ctx context.Context) ([]byte, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	got, hit, err := c.GetOrLoad(ctx, "scan", func(ctx context.Context) ([]byte, error) {
		return []byte("ok"), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "ok", string(got))
}

func TestCache_CancelledCallerStillCaches(t *testing.T) {
	c := New(nil, time.Minute, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) ([]byte, error) {
		close(started)
		<-release
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return []byte("late"), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, _, err := c.GetOrLoad(ctx, "scan", load)
		errCh <- err
	}()

	<-started
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	close(release)

	require.Eventually(t, func() bool {
		got, ok := c.Get(context.Background(), "scan")
		return ok && string(got) == "late"
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryBackend_CopiesPayload(t *testing.T) {
	b := NewMemoryBackend(nil)
	ctx := context.Background()

	payload := []byte("abc")
	require.NoError(t, b.Set(ctx, Entry{Key: "k", Payload: payload}, time.Minute))
	payload[0] = 'z'

	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got.Payload))

	_, err = b.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)
}
