// Package movers ranks a screener universe and attaches recent intraday prices.
package movers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"InvestorHelper/internal/cache"
	"InvestorHelper/internal/collector"
	"InvestorHelper/internal/model"
)

// ErrInvalidSort is wrapped by errors for unsupported sort parameters.
var ErrInvalidSort = errors.New("invalid movers sort")

// SortKey selects the screener column to rank by.
type SortKey string

const (
	SortChange    SortKey = "change"
	SortPrice     SortKey = "price"
	SortVolume    SortKey = "volume"
	SortMarketCap SortKey = "market_cap"
)

// Order is the ranking direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Intraday bars attached to each ranked row: one trading day of 5-minute bars.
const (
	IntradayTimeframe = "5m"
	IntradayBars      = 78
)

// Direction maps a movers direction to its sort key and order.
func Direction(direction string) (SortKey, Order, error) {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "", "gainers":
		return SortChange, Desc, nil
	case "losers":
		return SortChange, Asc, nil
	default:
		return "", "", fmt.Errorf("%w: unknown direction %q", ErrInvalidSort, direction)
	}
}

// Ranker ranks universes, serving intraday series from the cache where possible.
type Ranker struct {
	cache     cache.SeriesCache
	collector *collector.Collector
	log       zerolog.Logger
}

// NewRanker creates a Ranker.
func NewRanker(c cache.SeriesCache, col *collector.Collector, log zerolog.Logger) *Ranker {
	return &Ranker{
		cache:     c,
		collector: col,
		log:       log.With().Str("component", "movers").Logger(),
	}
}

func value(row model.ScreenerRow, key SortKey) float64 {
	switch key {
	case SortPrice:
		return row.Price
	case SortVolume:
		return row.Volume
	case SortMarketCap:
		return row.MarketCap
	default:
		return row.ChangePercent
	}
}

// Select validates, sorts and truncates the universe without attaching series.
func Select(universe []model.ScreenerRow, key SortKey, order Order, topN int) ([]model.ScreenerRow, error) {
	switch key {
	case SortChange, SortPrice, SortVolume, SortMarketCap:
	default:
		return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidSort, key)
	}
	if order != Asc && order != Desc {
		return nil, fmt.Errorf("%w: unknown order %q", ErrInvalidSort, order)
	}

	rows := make([]model.ScreenerRow, 0, len(universe))
	for _, row := range universe {
		if row.Validate() != nil {
			continue
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if order == Asc {
			return value(rows[i], key) < value(rows[j], key)
		}
		return value(rows[i], key) > value(rows[j], key)
	})
	if topN < 0 {
		topN = 0
	}
	if len(rows) > topN {
		rows = rows[:topN]
	}
	return rows, nil
}

// Rank returns the top N rows by key and order, each with intraday bars attached.
// Rows whose series cannot be fetched are dropped; ranking order is preserved.
func (r *Ranker) Rank(ctx context.Context, universe []model.ScreenerRow, key SortKey, order Order, topN int) ([]model.RankedRow, error) {
	rows, err := Select(universe, key, order, topN)
	if err != nil {
		return nil, err
	}

	series := make(map[string][]model.PricePoint, len(rows))
	var misses []string
	for _, row := range rows {
		if entry, ok := r.cache.Get(ctx, row.Symbol); ok {
			series[row.Symbol] = entry.Series
			continue
		}
		misses = append(misses, row.Symbol)
	}

	if len(misses) > 0 {
		for _, res := range r.collector.FetchBatch(ctx, misses, IntradayTimeframe, IntradayBars) {
			if !res.OK() {
				r.log.Warn().Err(res.Err).Str("symbol", res.Symbol).Msg("dropping symbol")
				continue
			}
			series[res.Symbol] = res.Series
			if err := r.cache.Put(ctx, res.Symbol, res.Series); err != nil {
				r.log.Warn().Err(err).Str("symbol", res.Symbol).Msg("cache put failed")
			}
		}
	}

	out := make([]model.RankedRow, 0, len(rows))
	for _, row := range rows {
		s, ok := series[row.Symbol]
		if !ok {
			continue
		}
		out = append(out, model.RankedRow{ScreenerRow: row, Intraday: s})
	}
	r.log.Debug().Int("ranked", len(out)).Int("fetched", len(misses)).Msg("movers ranked")
	return out, nil
}

// Warm refetches symbols and replaces their cache entries.
// It returns the batch results so callers can refresh quotes from them.
func (r *Ranker) Warm(ctx context.Context, symbols []string) []model.SeriesResult {
	results := r.collector.FetchBatch(ctx, symbols, IntradayTimeframe, IntradayBars)
	for _, res := range results {
		if !res.OK() {
			continue
		}
		if err := r.cache.Put(ctx, res.Symbol, res.Series); err != nil {
			r.log.Warn().Err(err).Str("symbol", res.Symbol).Msg("cache put failed")
		}
	}
	return results
}
