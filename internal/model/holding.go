package model

import "time"

// Holding is one position of a wallet or comparison basket.
type Holding struct {
	Symbol           string    `json:"symbol" yaml:"symbol"`
	Quantity         float64   `json:"quantity" yaml:"quantity"`
	CostBasisPerUnit float64   `json:"costBasisPerUnit" yaml:"cost_basis_per_unit"`
	AcquiredAt       time.Time `json:"acquiredAt" yaml:"acquired_at"`
	CurrencyCode     string    `json:"currencyCode" yaml:"currency_code"`
	Sector           string    `json:"sector,omitempty" yaml:"sector"`
	DisplayName      string    `json:"displayName,omitempty" yaml:"display_name"`
}

// Label returns the display name, falling back to the symbol.
func (h Holding) Label() string {
	if h.DisplayName != "" {
		return h.DisplayName
	}
	return h.Symbol
}

// ValuedHolding is a holding with its end-of-window market value.
type ValuedHolding struct {
	Holding
	TotalValue float64 `json:"totalValue"`
}

// WeightEntry is the share of total portfolio value held by one symbol or group.
type WeightEntry struct {
	Key           string  `json:"key"`
	Label         string  `json:"label"`
	WeightPercent float64 `json:"weightPercent"`
}

// ActiveHoldings drops zero-quantity holdings.
func ActiveHoldings(holdings []Holding) []Holding {
	out := make([]Holding, 0, len(holdings))
	for _, h := range holdings {
		if h.Quantity > 0 {
			out = append(out, h)
		}
	}
	return out
}

// Symbols returns the distinct symbols of holdings in first-seen order.
func Symbols(holdings []Holding) []string {
	seen := make(map[string]bool, len(holdings))
	out := make([]string, 0, len(holdings))
	for _, h := range holdings {
		if seen[h.Symbol] {
			continue
		}
		seen[h.Symbol] = true
		out = append(out, h.Symbol)
	}
	return out
}
