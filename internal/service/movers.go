package service

import (
	"context"
	"fmt"

	"InvestorHelper/internal/model"
	"InvestorHelper/internal/movers"
)

// DefaultMoversLimit is used when the caller gives no limit.
const DefaultMoversLimit = 10

// Movers ranks the screener universe in a direction ("gainers" or "losers").
func (s *Service) Movers(ctx context.Context, direction string, limit int) ([]model.RankedRow, error) {
	key, order, err := movers.Direction(direction)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultMoversLimit
	}
	rows, err := s.universe.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	return s.ranker.Rank(ctx, rows, key, order, limit)
}
