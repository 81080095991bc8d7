package service

import (
	"context"
	"strings"
	"time"

	"InvestorHelper/internal/calculator"
	"InvestorHelper/internal/model"
	"InvestorHelper/internal/portfolio"
)

// PriceRange bounds the chart axis.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SymbolPerformance is the change of one symbol over the window, on its own series.
type SymbolPerformance struct {
	Symbol        string  `json:"symbol"`
	First         float64 `json:"first"`
	Last          float64 `json:"last"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// Comparison charts several symbols on one grid.
type Comparison struct {
	Timeframe     string              `json:"timeframe"`
	Prices        []model.GridPoint   `json:"prices"`
	Range         PriceRange          `json:"range"`
	Performance   []SymbolPerformance `json:"performance"`
	FailedSymbols []string            `json:"failedSymbols,omitempty"`
}

// CompareRequest selects symbols and an optional explicit window.
// A zero From uses the timeframe's lookback; a zero To means now.
type CompareRequest struct {
	Symbols   []string
	Timeframe string
	From      time.Time
	To        time.Time
}

// ParseSymbols splits a comma-separated symbol list, dropping blanks and duplicates.
func ParseSymbols(raw string) []string {
	var holdings []model.Holding
	for _, s := range strings.Split(raw, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			holdings = append(holdings, model.Holding{Symbol: s})
		}
	}
	return model.Symbols(holdings)
}

// Compare aligns each symbol as a one-unit holding and reports the shared axis range.
func (s *Service) Compare(ctx context.Context, req CompareRequest) (*Comparison, error) {
	if len(req.Symbols) == 0 {
		return nil, ErrNoSymbols
	}
	to := req.To
	if to.IsZero() {
		to = s.now()
	}
	spec := calculator.LookupTimeframe(req.Timeframe, to)
	if !req.From.IsZero() {
		spec.From = req.From
		spec.BarCount = barsToCover(spec, s.now())
	}

	w, err := s.run(ctx, req.Symbols, spec, to)
	if err != nil {
		return nil, err
	}

	holdings := make([]model.Holding, len(req.Symbols))
	series := make([][]model.AlignedPoint, 0, len(req.Symbols))
	perf := make([]SymbolPerformance, 0, len(req.Symbols))
	for i, sym := range req.Symbols {
		holdings[i] = model.Holding{Symbol: sym, Quantity: 1}
		if aligned, ok := w.aligned[sym]; ok {
			series = append(series, aligned)
		}
		first, last, ok := calculator.NativeChange(w.native[sym])
		if !ok {
			continue
		}
		p := SymbolPerformance{Symbol: sym, First: first, Last: last, Change: last - first}
		if first != 0 {
			p.ChangePercent = 100 * (last - first) / first
		}
		perf = append(perf, p)
	}

	out := &Comparison{
		Timeframe:     spec.Label,
		Prices:        portfolio.Valuate(w.grid, holdings, w.aligned),
		Performance:   perf,
		FailedSymbols: w.failed,
	}
	if low, high, err := calculator.SeriesRange(series...); err == nil {
		out.Range = PriceRange{Min: low, Max: high}
	}
	return out, nil
}

// barsToCover returns how many bars a fetch needs to reach back to spec.From.
// Upstream ranges always end at now, so a historical window needs every bar since its start.
func barsToCover(spec model.TimeframeSpec, now time.Time) int {
	if spec.StepInterval <= 0 || !spec.From.Before(now) {
		return spec.BarCount
	}
	n := int(now.Sub(spec.From)/spec.StepInterval) + 1
	if n < spec.BarCount {
		return spec.BarCount
	}
	return n
}
