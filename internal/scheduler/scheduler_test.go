package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InvestorHelper/internal/cache"
	"InvestorHelper/internal/collector"
	"InvestorHelper/internal/model"
	"InvestorHelper/internal/movers"
	"InvestorHelper/internal/screener"
)

func testUniverse() screener.StaticUniverse {
	return screener.StaticUniverse{
		{Symbol: "UP", ChangePercent: 5},
		{Symbol: "FLAT", ChangePercent: 0},
		{Symbol: "DOWN", ChangePercent: -5},
	}
}

func newTestScheduler(t *testing.T, mock *collector.MockFetcher, mem *cache.MemoryCache) *Scheduler {
	t.Helper()
	col := collector.NewCollector(mock, zerolog.Nop())
	col.Timeout = time.Second
	ranker := movers.NewRanker(mem, col, zerolog.Nop())
	s := NewScheduler(context.Background(), ranker, testUniverse(), zerolog.Nop())
	s.WarmTopN = 1
	return s
}

func TestWarmMovers_FillsCacheForBothEnds(t *testing.T) {
	mem := cache.NewMemoryCache(time.Hour)
	mock := &collector.MockFetcher{Price: 20}
	s := newTestScheduler(t, mock, mem)

	s.RunWarmNow()

	ctx := context.Background()
	_, ok := mem.Get(ctx, "UP")
	assert.True(t, ok)
	_, ok = mem.Get(ctx, "DOWN")
	assert.True(t, ok)
	_, ok = mem.Get(ctx, "FLAT")
	assert.False(t, ok)
	assert.Equal(t, 1, mock.Opened())
}

func TestWarmMovers_SavesRefreshedUniverse(t *testing.T) {
	mem := cache.NewMemoryCache(time.Hour)
	s := newTestScheduler(t, &collector.MockFetcher{Price: 20}, mem)
	file := screener.NewFileUniverse(filepath.Join(t.TempDir(), "universe.json"))
	s.Saver = file

	s.RunWarmNow()

	rows, err := file.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	prices := map[string]float64{}
	for _, r := range rows {
		prices[r.Symbol] = r.Price
	}
	assert.Equal(t, 20.0, prices["UP"])
	assert.Zero(t, prices["FLAT"])
}

func TestSweepCache(t *testing.T) {
	now := time.Unix(0, 0)
	mem := cache.NewMemoryCache(time.Minute, cache.WithClock(func() time.Time { return now }))
	require.NoError(t, mem.Put(context.Background(), "OLD", []model.PricePoint{{Time: 1, Close: 1}}))
	now = now.Add(2 * time.Minute)

	s := newTestScheduler(t, &collector.MockFetcher{}, mem)
	s.Sweeper = mem
	s.sweepCache()
	assert.Zero(t, mem.Len())
}

func TestRegisterAll(t *testing.T) {
	mem := cache.NewMemoryCache(time.Hour)
	s := newTestScheduler(t, &collector.MockFetcher{}, mem)
	s.Sweeper = mem

	require.NoError(t, s.RegisterAll("0 */15 * * * *", "0 0 * * * *"))
	assert.Len(t, s.Cron.Entries(), 2)

	assert.Error(t, s.RegisterAll("not a cron", "0 0 * * * *"))
}
