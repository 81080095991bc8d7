package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"InvestorHelper/internal/model"
	"InvestorHelper/internal/movers"
	"InvestorHelper/internal/screener"
)

// Sweeper drops stale cache entries.
type Sweeper interface {
	Sweep() int
}

// UniverseSaver persists refreshed screener rows.
type UniverseSaver interface {
	Save(rows []model.ScreenerRow) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Ranker   *movers.Ranker
	Universe screener.Universe
	Saver    UniverseSaver // optional
	Sweeper  Sweeper       // optional, nil for shared caches that expire on their own
	WarmTopN int
	Ctx      context.Context

	log zerolog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, ranker *movers.Ranker, universe screener.Universe, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Ranker:   ranker,
		Universe: universe,
		WarmTopN: 10,
		Ctx:      ctx,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll registers the movers warm-up and cache sweep tasks.
func (s *Scheduler) RegisterAll(moversCron, sweepCron string) error {
	if _, err := s.Cron.AddFunc(moversCron, s.warmMovers); err != nil {
		return fmt.Errorf("register movers task: %w", err)
	}
	if s.Sweeper != nil {
		if _, err := s.Cron.AddFunc(sweepCron, s.sweepCache); err != nil {
			return fmt.Errorf("register sweep task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("tasks", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully, waiting for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunWarmNow executes the movers warm-up immediately (for RUN_ON_START).
func (s *Scheduler) RunWarmNow() {
	s.warmMovers()
}

// warmMovers refreshes the intraday series of both ends of the universe so
// /movers requests are served from the cache, then updates the universe quotes.
func (s *Scheduler) warmMovers() {
	s.log.Info().Msg("running movers warm-up")
	rows, err := s.Universe.Rows(s.Ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("load universe")
		return
	}

	seen := make(map[string]bool)
	var symbols []string
	for _, direction := range []string{"gainers", "losers"} {
		key, order, _ := movers.Direction(direction)
		top, err := movers.Select(rows, key, order, s.WarmTopN)
		if err != nil {
			s.log.Error().Err(err).Str("direction", direction).Msg("select movers")
			continue
		}
		for _, row := range top {
			if !seen[row.Symbol] {
				seen[row.Symbol] = true
				symbols = append(symbols, row.Symbol)
			}
		}
	}
	if len(symbols) == 0 {
		return
	}

	results := s.Ranker.Warm(s.Ctx, symbols)
	var failed int
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	s.log.Info().Int("symbols", len(symbols)).Int("failed", failed).Msg("movers cache warmed")

	if s.Saver == nil {
		return
	}
	if err := s.Saver.Save(screener.Refresh(rows, results)); err != nil {
		s.log.Error().Err(err).Msg("save universe")
	}
}

func (s *Scheduler) sweepCache() {
	removed := s.Sweeper.Sweep()
	s.log.Debug().Int("removed", removed).Msg("cache swept")
}
