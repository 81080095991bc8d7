package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"InvestorHelper/internal/model"
)

// ErrSymbolFailed is returned by MockFetcher for symbols listed in Failures.
var ErrSymbolFailed = errors.New("mock: fetch failed")

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price    float64
	Series   map[string][]model.PricePoint
	Failures map[string]error
	Delays   map[string]time.Duration
	OpenErr  error
	CloseErr error

	// Now anchors generated bars; defaults to time.Now.
	Now func() time.Time

	opened atomic.Int32
	closed atomic.Int32

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) OpenSession(_ context.Context) (Session, error) {
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	m.opened.Add(1)
	return &mockSession{id: uuid.NewString(), fetcher: m}, nil
}

// Opened returns how many sessions were opened.
func (m *MockFetcher) Opened() int { return int(m.opened.Load()) }

// Closed returns how many sessions were closed.
func (m *MockFetcher) Closed() int { return int(m.closed.Load()) }

// Calls returns how many times symbol was fetched.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

type mockSession struct {
	id      string
	fetcher *MockFetcher
	once    sync.Once
}

func (s *mockSession) ID() string { return s.id }

func (s *mockSession) Close() error {
	s.once.Do(func() { s.fetcher.closed.Add(1) })
	return s.fetcher.CloseErr
}

func (s *mockSession) FetchSeries(ctx context.Context, symbol, barTimeframe string, barCount int) (*model.SeriesResult, error) {
	m := s.fetcher
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[symbol]++
	m.mu.Unlock()

	if d := m.Delays[symbol]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := m.Failures[symbol]; err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	if series, ok := m.Series[symbol]; ok {
		return &model.SeriesResult{Symbol: symbol, Series: series, Meta: model.InstrumentMeta{Symbol: symbol}}, nil
	}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	return &model.SeriesResult{
		Symbol: symbol,
		Series: generateMockBars(m.Price, barCount, barDuration(barTimeframe), now()),
		Meta:   model.InstrumentMeta{Symbol: symbol, RegularMarketPrice: m.Price},
	}, nil
}

func generateMockBars(basePrice float64, count int, step time.Duration, end time.Time) []model.PricePoint {
	if basePrice <= 0 {
		basePrice = 100
	}
	bars := make([]model.PricePoint, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.PricePoint{
			Time:   end.Add(-time.Duration(count-i) * step).Unix(),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
