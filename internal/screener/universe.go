// Package screener supplies the symbol universe the movers ranking runs over.
package screener

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"InvestorHelper/internal/model"
)

// Universe lists screener rows to rank.
type Universe interface {
	Rows(ctx context.Context) ([]model.ScreenerRow, error)
}

// StaticUniverse serves a fixed row set.
type StaticUniverse []model.ScreenerRow

func (u StaticUniverse) Rows(context.Context) ([]model.ScreenerRow, error) {
	return append([]model.ScreenerRow(nil), u...), nil
}

// DefaultUniverse is used when no screener file is present.
var DefaultUniverse = StaticUniverse{
	{Symbol: "AAPL", Name: "Apple Inc.", Sector: "Technology", Currency: "USD"},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Sector: "Technology", Currency: "USD"},
	{Symbol: "NVDA", Name: "NVIDIA Corporation", Sector: "Technology", Currency: "USD"},
	{Symbol: "AMZN", Name: "Amazon.com Inc.", Sector: "Consumer Cyclical", Currency: "USD"},
	{Symbol: "GOOGL", Name: "Alphabet Inc.", Sector: "Communication Services", Currency: "USD"},
	{Symbol: "META", Name: "Meta Platforms Inc.", Sector: "Communication Services", Currency: "USD"},
	{Symbol: "TSLA", Name: "Tesla Inc.", Sector: "Consumer Cyclical", Currency: "USD"},
	{Symbol: "JPM", Name: "JPMorgan Chase & Co.", Sector: "Financial Services", Currency: "USD"},
	{Symbol: "XOM", Name: "Exxon Mobil Corporation", Sector: "Energy", Currency: "USD"},
	{Symbol: "JNJ", Name: "Johnson & Johnson", Sector: "Healthcare", Currency: "USD"},
}

// FileUniverse reads rows from a JSON file, falling back when the file doesn't exist.
// Saved quote refreshes are served from memory until the next Save.
type FileUniverse struct {
	Path     string
	Fallback Universe

	mu sync.Mutex
}

// NewFileUniverse creates a file-backed universe with DefaultUniverse as fallback.
func NewFileUniverse(path string) *FileUniverse {
	return &FileUniverse{Path: path, Fallback: DefaultUniverse}
}

func (u *FileUniverse) Rows(ctx context.Context) ([]model.ScreenerRow, error) {
	u.mu.Lock()
	data, err := os.ReadFile(u.Path)
	u.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) && u.Fallback != nil {
			return u.Fallback.Rows(ctx)
		}
		return nil, fmt.Errorf("read universe %s: %w", u.Path, err)
	}
	var rows []model.ScreenerRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode universe %s: %w", u.Path, err)
	}
	return rows, nil
}

// Save writes rows to the universe file.
func (u *FileUniverse) Save(rows []model.ScreenerRow) error {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return os.WriteFile(u.Path, data, 0644)
}

// Refresh updates price and daily change of rows from fetched instrument metadata.
// Rows without a successful result keep their previous quote.
func Refresh(rows []model.ScreenerRow, results []model.SeriesResult) []model.ScreenerRow {
	bySymbol := make(map[string]model.SeriesResult, len(results))
	for _, r := range results {
		if r.OK() {
			bySymbol[r.Symbol] = r
		}
	}
	out := make([]model.ScreenerRow, len(rows))
	for i, row := range rows {
		out[i] = row
		r, ok := bySymbol[row.Symbol]
		if !ok {
			continue
		}
		price := r.Meta.RegularMarketPrice
		if price == 0 && len(r.Series) > 0 {
			price = r.Series[len(r.Series)-1].Close
		}
		if price <= 0 {
			continue
		}
		out[i].Price = price
		if prev := r.Meta.PreviousClose; prev > 0 {
			out[i].ChangePercent = 100 * (price - prev) / prev
		}
		if len(r.Series) > 0 {
			var vol float64
			for _, p := range r.Series {
				vol += p.Volume
			}
			out[i].Volume = vol
		}
		if r.Meta.Currency != "" {
			out[i].Currency = r.Meta.Currency
		}
	}
	return out
}
