// Package portfolio turns aligned per-symbol prices into portfolio value series and weights.
package portfolio

import (
	"time"

	"InvestorHelper/internal/calculator"
	"InvestorHelper/internal/model"
)

// Valuate computes total and net value at every grid timestamp.
//
// The cost-basis delta of a holding is accumulated at every grid point, including those
// before the holding was acquired. A holding without an aligned series is valued as an empty
// one: price 0, never matched.
func Valuate(grid []time.Time, holdings []model.Holding, aligned map[string][]model.AlignedPoint) []model.GridPoint {
	points := make([]model.GridPoint, len(grid))
	for i, ts := range grid {
		gp := model.GridPoint{Timestamp: ts, PerHoldingDetail: []model.HoldingDetail{}}
		for _, h := range holdings {
			var ap model.AlignedPoint
			if series := aligned[h.Symbol]; i < len(series) {
				ap = series[i]
			}
			gp.TotalValue += h.Quantity * ap.Price
			gp.TotalNetValue += h.Quantity * (h.CostBasisPerUnit - ap.Price)

			if !ap.Matched {
				continue
			}
			detail := model.HoldingDetail{
				Symbol:           h.Symbol,
				MatchedPrice:     ap.Price,
				CostBasisPerUnit: h.CostBasisPerUnit,
			}
			if h.CostBasisPerUnit > 0 {
				ratio := (ap.Price - h.CostBasisPerUnit) / h.CostBasisPerUnit
				detail.PerformanceRatio = &ratio
			}
			gp.PerHoldingDetail = append(gp.PerHoldingDetail, detail)
		}
		points[i] = gp
	}
	return points
}

// EndState values each holding at the last aligned price of the window.
func EndState(holdings []model.Holding, aligned map[string][]model.AlignedPoint) []model.ValuedHolding {
	out := make([]model.ValuedHolding, 0, len(holdings))
	for _, h := range holdings {
		vh := model.ValuedHolding{Holding: h}
		if series := aligned[h.Symbol]; len(series) > 0 {
			vh.TotalValue = h.Quantity * series[len(series)-1].Price
		}
		out = append(out, vh)
	}
	return out
}

// Performance is the value change of the holdings over the window, measured on each
// holding's own series rather than the grid: sum of quantity * (last close - first close).
func Performance(holdings []model.Holding, native map[string][]model.PricePoint) float64 {
	var total float64
	for _, h := range holdings {
		first, last, ok := calculator.NativeChange(native[h.Symbol])
		if !ok {
			continue
		}
		total += h.Quantity * (last - first)
	}
	return total
}
