package recorder

import (
	"context"
	"errors"
	"time"

	"InvestorHelper/internal/model"
)

// ErrWalletNotFound is returned for unknown wallet ids.
var ErrWalletNotFound = errors.New("wallet not found")

// ValuationSnapshot summarises one wallet valuation.
type ValuationSnapshot struct {
	WalletID      string    `json:"walletId"`
	Timeframe     string    `json:"timeframe"`
	RecordedAt    time.Time `json:"recordedAt"`
	TotalValue    float64   `json:"totalValue"`
	TotalNetValue float64   `json:"totalNetValue"`
	Performance   float64   `json:"performance"`
	Holdings      int       `json:"holdings"`
	FailedSymbols int       `json:"failedSymbols"`
}

// HoldingsStore lists the holdings of a wallet.
type HoldingsStore interface {
	Holdings(ctx context.Context, walletID string) ([]model.Holding, error)
}

// Recorder persists valuation history for analysis.
type Recorder interface {
	RecordValuation(ctx context.Context, snap *ValuationSnapshot) error
	Close() error
}
