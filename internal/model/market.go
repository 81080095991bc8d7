package model

import (
	"fmt"
	"math"
	"time"
)

// PricePoint represents a single OHLCV bar. Time is epoch seconds.
type PricePoint struct {
	Time   int64   `json:"time" msgpack:"t"`
	Open   float64 `json:"open" msgpack:"o"`
	High   float64 `json:"high" msgpack:"h"`
	Low    float64 `json:"low" msgpack:"l"`
	Close  float64 `json:"close" msgpack:"c"`
	Volume float64 `json:"volume" msgpack:"v"`
}

// At returns the bar time as a time.Time.
func (p PricePoint) At() time.Time {
	return time.Unix(p.Time, 0)
}

// Validate rejects bars that would poison downstream arithmetic.
func (p PricePoint) Validate() error {
	if p.Time <= 0 {
		return fmt.Errorf("invalid bar time %d", p.Time)
	}
	for _, v := range []float64{p.Open, p.High, p.Low, p.Close, p.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("invalid bar value %v at %d", v, p.Time)
		}
	}
	return nil
}

// InstrumentMeta carries what the price source reports about an instrument besides its bars.
type InstrumentMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency,omitempty"`
	ExchangeName       string  `json:"exchangeName,omitempty"`
	RegularMarketPrice float64 `json:"regularMarketPrice,omitempty"`
	PreviousClose      float64 `json:"previousClose,omitempty"`
}

// SeriesResult is the per-symbol outcome of a batch fetch. Exactly one of Series or Err is meaningful.
type SeriesResult struct {
	Symbol string
	Series []PricePoint
	Meta   InstrumentMeta
	Err    error
}

// OK reports whether the fetch succeeded.
func (r SeriesResult) OK() bool { return r.Err == nil }

// CacheEntry is an immutable snapshot of a fetched series.
type CacheEntry struct {
	Symbol    string       `msgpack:"symbol"`
	Series    []PricePoint `msgpack:"series"`
	FetchedAt time.Time    `msgpack:"fetched_at"`
}
