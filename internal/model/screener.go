package model

import (
	"fmt"
	"math"
	"strings"
)

// ScreenerRow is one instrument of the movers universe.
type ScreenerRow struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name,omitempty"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"changePercent"`
	Volume        float64 `json:"volume"`
	MarketCap     float64 `json:"marketCap,omitempty"`
	Sector        string  `json:"sector,omitempty"`
	Currency      string  `json:"currency,omitempty"`
}

// Validate rejects rows without a symbol or with non-finite numbers.
func (r ScreenerRow) Validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return fmt.Errorf("screener row without symbol")
	}
	for _, v := range []float64{r.Price, r.ChangePercent, r.Volume, r.MarketCap} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("screener row %s: non-finite value", r.Symbol)
		}
	}
	return nil
}

// RankedRow is a screener row with its recent intraday bars attached.
type RankedRow struct {
	ScreenerRow
	Intraday []PricePoint `json:"intraday"`
}
