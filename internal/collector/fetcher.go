package collector

import (
	"context"

	"InvestorHelper/internal/model"
)

// Fetcher opens sessions against an upstream price source.
type Fetcher interface {
	OpenSession(ctx context.Context) (Session, error)
	Name() string
}

// Session is a shared upstream handle used for one batch of fetches.
// It is safe for concurrent FetchSeries calls and must be closed exactly once.
type Session interface {
	ID() string
	// FetchSeries returns up to barCount bars of the given bar timeframe.
	// Unknown symbols yield an empty series, not an error.
	FetchSeries(ctx context.Context, symbol, barTimeframe string, barCount int) (*model.SeriesResult, error)
	Close() error
}
