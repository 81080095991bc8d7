package portfolio

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"InvestorHelper/internal/model"
)

// UnknownSector labels holdings without a sector.
const UnknownSector = "Unknown"

func totalValue(holdings []model.ValuedHolding) float64 {
	values := make([]float64, len(holdings))
	for i, h := range holdings {
		values[i] = h.TotalValue
	}
	return floats.Sum(values)
}

// SymbolWeights returns the percentage of total value per symbol, in first-seen order.
// An empty portfolio yields one zero-weight entry per holding.
func SymbolWeights(holdings []model.ValuedHolding) []model.WeightEntry {
	total := totalValue(holdings)
	if total == 0 {
		out := make([]model.WeightEntry, 0, len(holdings))
		for _, h := range holdings {
			out = append(out, model.WeightEntry{Key: h.Symbol, Label: h.Label()})
		}
		return out
	}
	return group(holdings, total, func(h model.ValuedHolding) (string, string) {
		return h.Symbol, h.Label()
	})
}

// SectorWeights returns the percentage of total value per sector, in first-seen order.
// An empty portfolio yields no entries.
func SectorWeights(holdings []model.ValuedHolding) []model.WeightEntry {
	total := totalValue(holdings)
	if total == 0 {
		return []model.WeightEntry{}
	}
	return group(holdings, total, func(h model.ValuedHolding) (string, string) {
		if h.Sector == "" {
			return UnknownSector, UnknownSector
		}
		return h.Sector, h.Sector
	})
}

func group(holdings []model.ValuedHolding, total float64, keyOf func(model.ValuedHolding) (string, string)) []model.WeightEntry {
	index := make(map[string]int)
	out := []model.WeightEntry{}
	for _, h := range holdings {
		key, label := keyOf(h)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, model.WeightEntry{Key: key, Label: label})
		}
		out[i].WeightPercent += 100 * h.TotalValue / total
	}
	return out
}

// SortWeights orders entries by descending weight, ties by key.
func SortWeights(entries []model.WeightEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].WeightPercent != entries[j].WeightPercent {
			return entries[i].WeightPercent > entries[j].WeightPercent
		}
		return entries[i].Key < entries[j].Key
	})
}
