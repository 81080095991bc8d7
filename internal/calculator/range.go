package calculator

import (
	"errors"

	"gonum.org/v1/gonum/floats"

	"InvestorHelper/internal/model"
)

// SeriesRange returns the lowest and highest price across aligned series.
// Zero prices mark symbols without data and are ignored.
func SeriesRange(series ...[]model.AlignedPoint) (low, high float64, err error) {
	var prices []float64
	for _, s := range series {
		for _, p := range s {
			if p.Price > 0 {
				prices = append(prices, p.Price)
			}
		}
	}
	if len(prices) == 0 {
		return 0, 0, errors.New("no prices in range")
	}
	return floats.Min(prices), floats.Max(prices), nil
}

// NativeChange returns the first and last close of a raw series by time, whatever its order.
func NativeChange(series []model.PricePoint) (first, last float64, ok bool) {
	if len(series) == 0 {
		return 0, 0, false
	}
	oldest, newest := series[0], series[0]
	for _, p := range series[1:] {
		if p.Time < oldest.Time {
			oldest = p
		}
		if p.Time > newest.Time {
			newest = p
		}
	}
	return oldest.Close, newest.Close, true
}
