package model

import "time"

// TimeframeSpec describes how a user-facing timeframe is fetched and resampled.
type TimeframeSpec struct {
	Label          string
	BarTimeframe   string // source granularity token, e.g. "5m", "1d"
	BarCount       int
	From           time.Time
	StepInterval   time.Duration
	MatchThreshold time.Duration
}

// AlignedPoint is one series value resampled onto a grid timestamp.
type AlignedPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Matched   bool      `json:"matched"`
}

// HoldingDetail reports a real observation of one holding at a grid timestamp.
type HoldingDetail struct {
	Symbol           string   `json:"symbol"`
	MatchedPrice     float64  `json:"matchedPrice"`
	CostBasisPerUnit float64  `json:"costBasisPerUnit"`
	PerformanceRatio *float64 `json:"performanceRatio,omitempty"`
}

// GridPoint is one row of the valuation output.
type GridPoint struct {
	Timestamp        time.Time       `json:"timestamp"`
	TotalValue       float64         `json:"totalValue"`
	TotalNetValue    float64         `json:"totalNetValue"`
	PerHoldingDetail []HoldingDetail `json:"perHoldingDetail"`
}
