// Package service runs the valuation pipeline for wallets, comparisons and movers:
// fetch, grid, align, valuate, weigh.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"InvestorHelper/internal/calculator"
	"InvestorHelper/internal/collector"
	"InvestorHelper/internal/model"
	"InvestorHelper/internal/movers"
	"InvestorHelper/internal/portfolio"
	"InvestorHelper/internal/recorder"
	"InvestorHelper/internal/screener"
)

// ErrNoSymbols is returned for comparisons without symbols.
var ErrNoSymbols = errors.New("no symbols given")

// Service wires the engine to its collaborators.
type Service struct {
	store     recorder.HoldingsStore
	recorder  recorder.Recorder
	collector *collector.Collector
	ranker    *movers.Ranker
	universe  screener.Universe
	now       func() time.Time
	log       zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used to anchor timeframes.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRecorder persists a snapshot of every wallet valuation.
func WithRecorder(rec recorder.Recorder) Option {
	return func(s *Service) { s.recorder = rec }
}

// New creates a Service.
func New(store recorder.HoldingsStore, col *collector.Collector, ranker *movers.Ranker, universe screener.Universe, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		recorder:  recorder.NewNoopRecorder(),
		collector: col,
		ranker:    ranker,
		universe:  universe,
		now:       time.Now,
		log:       log.With().Str("component", "service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// window is the resolved per-request pipeline input and output.
type window struct {
	spec    model.TimeframeSpec
	grid    []time.Time
	aligned map[string][]model.AlignedPoint
	native  map[string][]model.PricePoint
	failed  []string
}

// run fetches every symbol in one batch and aligns each series onto the grid [from, to).
func (s *Service) run(ctx context.Context, symbols []string, spec model.TimeframeSpec, to time.Time) (*window, error) {
	grid, err := calculator.BuildGrid(spec.From, to, spec.StepInterval)
	if err != nil {
		return nil, err
	}

	w := &window{
		spec:    spec,
		grid:    grid,
		aligned: make(map[string][]model.AlignedPoint, len(symbols)),
		native:  make(map[string][]model.PricePoint, len(symbols)),
	}
	for _, res := range s.collector.FetchBatch(ctx, symbols, spec.BarTimeframe, spec.BarCount) {
		if !res.OK() {
			s.log.Warn().Err(res.Err).Str("symbol", res.Symbol).Msg("valuing symbol as empty")
			w.failed = append(w.failed, res.Symbol)
			w.aligned[res.Symbol] = calculator.Align(grid, nil, spec.MatchThreshold)
			continue
		}
		w.native[res.Symbol] = res.Series
		w.aligned[res.Symbol] = calculator.Align(grid, res.Series, spec.MatchThreshold)
	}
	return w, nil
}

// HoldingSeries is one holding's series resampled onto the valuation grid.
type HoldingSeries struct {
	Symbol string               `json:"symbol"`
	Label  string               `json:"label"`
	Prices []model.AlignedPoint `json:"prices"`
}

// WalletValuation is the valuation of a wallet over a timeframe.
type WalletValuation struct {
	WalletID         string                `json:"walletId"`
	Timeframe        string                `json:"timeframe"`
	Holdings         []model.ValuedHolding `json:"holdings"`
	PerHoldingSeries []HoldingSeries       `json:"perHoldingSeries"`
	AllPrices        []model.GridPoint     `json:"allPrices"`
	PortfolioWeights []model.WeightEntry   `json:"portfolioWeights"`
	SectorWeights    []model.WeightEntry   `json:"sectorWeights"`
	Performance      float64               `json:"performance"`
	FailedSymbols    []string              `json:"failedSymbols,omitempty"`
}

// ValuateWallet values a wallet's active holdings over the timeframe ending now.
func (s *Service) ValuateWallet(ctx context.Context, walletID, timeframe string) (*WalletValuation, error) {
	all, err := s.store.Holdings(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}
	holdings := model.ActiveHoldings(all)
	now := s.now()
	spec := calculator.LookupTimeframe(timeframe, now)

	log := s.log.With().Str("request", uuid.NewString()).Str("wallet", walletID).Str("timeframe", spec.Label).Logger()
	log.Debug().Int("holdings", len(holdings)).Msg("valuating wallet")

	w, err := s.run(ctx, model.Symbols(holdings), spec, now)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, walletID, holdings, w), nil
}

func (s *Service) assemble(ctx context.Context, walletID string, holdings []model.Holding, w *window) *WalletValuation {
	points := portfolio.Valuate(w.grid, holdings, w.aligned)
	valued := portfolio.EndState(holdings, w.aligned)

	symbolWeights := portfolio.SymbolWeights(valued)
	sectorWeights := portfolio.SectorWeights(valued)
	portfolio.SortWeights(symbolWeights)
	portfolio.SortWeights(sectorWeights)

	series := make([]HoldingSeries, 0, len(holdings))
	for _, h := range holdings {
		prices, ok := w.aligned[h.Symbol]
		if !ok {
			continue
		}
		series = append(series, HoldingSeries{Symbol: h.Symbol, Label: h.Label(), Prices: prices})
	}

	out := &WalletValuation{
		WalletID:         walletID,
		Timeframe:        w.spec.Label,
		Holdings:         valued,
		PerHoldingSeries: series,
		AllPrices:        points,
		PortfolioWeights: symbolWeights,
		SectorWeights:    sectorWeights,
		Performance:      portfolio.Performance(holdings, w.native),
		FailedSymbols:    w.failed,
	}

	snap := &recorder.ValuationSnapshot{
		WalletID:      walletID,
		Timeframe:     w.spec.Label,
		RecordedAt:    s.now(),
		Performance:   out.Performance,
		Holdings:      len(holdings),
		FailedSymbols: len(w.failed),
	}
	if n := len(points); n > 0 {
		snap.TotalValue = points[n-1].TotalValue
		snap.TotalNetValue = points[n-1].TotalNetValue
	}
	if err := s.recorder.RecordValuation(ctx, snap); err != nil {
		s.log.Error().Err(err).Str("wallet", walletID).Msg("record valuation")
	}
	return out
}
