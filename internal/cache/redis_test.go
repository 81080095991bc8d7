package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InvestorHelper/internal/model"
)

func TestRedisCache_UnreachableIsMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisCacheWithClient(client, time.Hour, zerolog.Nop())
	defer c.Close()

	ctx := context.Background()
	_, ok := c.Get(ctx, "AAPL")
	assert.False(t, ok)
	assert.Error(t, c.Put(ctx, "AAPL", series(1)))
}

func TestNewRedisCache_PingFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := NewRedisCache(ctx, "127.0.0.1:1", "", 0, time.Hour, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping")
}

func newMiniRedisCache(t *testing.T, clock *fakeClock) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCacheWithClient(client, time.Hour, zerolog.Nop(), WithRedisClock(clock.Now))
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisCache_PutThenGet(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c, mr := newMiniRedisCache(t, clock)

	want := series(1, 2.5, 3)
	require.NoError(t, c.Put(ctx, "AAPL", want))
	assert.True(t, mr.Exists("series:AAPL"))
	assert.Equal(t, time.Hour, mr.TTL("series:AAPL"))

	entry, ok := c.Get(ctx, "AAPL")
	require.True(t, ok)
	assert.Equal(t, "AAPL", entry.Symbol)
	assert.Equal(t, want, entry.Series)
	assert.True(t, entry.FetchedAt.Equal(clock.Now()))

	_, ok = c.Get(ctx, "MSFT")
	assert.False(t, ok)
}

func TestRedisCache_StaleEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c, _ := newMiniRedisCache(t, clock)

	require.NoError(t, c.Put(ctx, "AAPL", series(1)))

	clock.Advance(3599 * time.Second)
	_, ok := c.Get(ctx, "AAPL")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get(ctx, "AAPL")
	assert.False(t, ok, "an entry exactly one TTL old is stale")
}

func TestRedisCache_UndecodableEntryIsMiss(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c, mr := newMiniRedisCache(t, clock)

	require.NoError(t, mr.Set("series:AAPL", "not msgpack"))
	_, ok := c.Get(context.Background(), "AAPL")
	assert.False(t, ok)
}

func TestEntryEncoding(t *testing.T) {
	fetched := time.Date(2024, 1, 9, 14, 30, 15, 500, time.UTC)
	in := model.CacheEntry{
		Symbol:    "AAPL",
		Series:    []model.PricePoint{{Time: 1704758400, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 1000}},
		FetchedAt: fetched,
	}

	data, err := encodeEntry(in)
	require.NoError(t, err)
	out, err := decodeEntry(data)
	require.NoError(t, err)

	assert.Equal(t, in.Symbol, out.Symbol)
	assert.Equal(t, in.Series, out.Series)
	assert.True(t, fetched.Equal(out.FetchedAt))
}
