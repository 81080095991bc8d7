package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InvestorHelper/internal/model"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func series(closes ...float64) []model.PricePoint {
	out := make([]model.PricePoint, len(closes))
	for i, c := range closes {
		out[i] = model.PricePoint{Time: int64(1000 + i*60), Close: c}
	}
	return out
}

func TestMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := NewMemoryCache(time.Hour, WithClock(clock.Now))

	require.NoError(t, c.Put(ctx, "AAPL", series(1, 2, 3)))

	clock.Advance(3599 * time.Second)
	entry, ok := c.Get(ctx, "AAPL")
	require.True(t, ok, "entry should still be fresh just under the ttl")
	assert.Equal(t, "AAPL", entry.Symbol)
	assert.Len(t, entry.Series, 3)

	clock.Advance(2 * time.Second)
	_, ok = c.Get(ctx, "AAPL")
	assert.False(t, ok, "entry should be stale past the ttl")
}

func TestMemoryCache_ExactTTLIsStale(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(0, 0)}
	c := NewMemoryCache(10*time.Second, WithClock(clock.Now))
	require.NoError(t, c.Put(ctx, "X", series(1)))

	clock.Advance(10 * time.Second)
	_, ok := c.Get(ctx, "X")
	assert.False(t, ok)
}

func TestMemoryCache_Miss(t *testing.T) {
	c := NewMemoryCache(0)
	_, ok := c.Get(context.Background(), "NOPE")
	assert.False(t, ok)
}

func TestMemoryCache_PutReplacesEntry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(0, 0)}
	c := NewMemoryCache(time.Hour, WithClock(clock.Now))

	input := series(1, 2)
	require.NoError(t, c.Put(ctx, "X", input))
	first, _ := c.Get(ctx, "X")
	input[0].Close = 99
	assert.Equal(t, 1.0, first.Series[0].Close, "cached series must not alias caller slice")

	clock.Advance(time.Minute)
	require.NoError(t, c.Put(ctx, "X", series(5)))
	second, ok := c.Get(ctx, "X")
	require.True(t, ok)
	assert.Len(t, second.Series, 1)
	assert.Equal(t, clock.Now(), second.FetchedAt)
	assert.Len(t, first.Series, 2, "earlier readers keep their snapshot")
}

func TestMemoryCache_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(0, 0)}
	c := NewMemoryCache(time.Hour, WithClock(clock.Now))

	require.NoError(t, c.Put(ctx, "OLD", series(1)))
	clock.Advance(50 * time.Minute)
	require.NoError(t, c.Put(ctx, "NEW", series(2)))
	clock.Advance(20 * time.Minute)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(ctx, "NEW")
	assert.True(t, ok)
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Put(ctx, "SHARED", series(float64(i)))
			_, _ = c.Get(ctx, "SHARED")
		}(i)
	}
	wg.Wait()
	entry, ok := c.Get(ctx, "SHARED")
	require.True(t, ok)
	assert.Len(t, entry.Series, 1)
}
