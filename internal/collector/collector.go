package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"InvestorHelper/internal/model"
)

const (
	DefaultMaxConcurrency = 8
	DefaultFetchTimeout   = 20 * time.Second
)

// ErrFetchTimeout marks symbols still unresolved when the batch deadline passed.
var ErrFetchTimeout = errors.New("fetch timed out")

// Collector fans a batch of symbols out over one upstream session.
type Collector struct {
	Fetcher        Fetcher
	MaxConcurrency int
	Timeout        time.Duration
	Retries        int
	RetryBackoff   time.Duration

	log zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, log zerolog.Logger) *Collector {
	return &Collector{
		Fetcher:        fetcher,
		MaxConcurrency: DefaultMaxConcurrency,
		Timeout:        DefaultFetchTimeout,
		RetryBackoff:   250 * time.Millisecond,
		log:            log.With().Str("component", "collector").Str("source", fetcher.Name()).Logger(),
	}
}

// FetchBatch fetches every symbol through a single session and returns one result per
// input symbol, in input order. Duplicate symbols are fetched once. Failures, including
// symbols unresolved at the batch deadline, are reported as *model.UpstreamFetchError in
// the result and never abort the batch.
func (c *Collector) FetchBatch(ctx context.Context, symbols []string, barTimeframe string, barCount int) []model.SeriesResult {
	if len(symbols) == 0 {
		return []model.SeriesResult{}
	}
	unique := distinct(symbols)

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	session, err := c.Fetcher.OpenSession(ctx)
	if err != nil {
		c.log.Error().Err(err).Int("symbols", len(unique)).Msg("open session failed")
		byErr := make(map[string]model.SeriesResult, len(unique))
		for _, s := range unique {
			byErr[s] = failed(s, fmt.Errorf("open session: %w", err))
		}
		return inOrder(symbols, byErr)
	}

	var (
		mu     sync.Mutex
		sealed bool
		byKey  = make(map[string]model.SeriesResult, len(unique))
	)

	g := new(errgroup.Group)
	limit := c.MaxConcurrency
	if limit <= 0 {
		limit = DefaultMaxConcurrency
	}
	g.SetLimit(limit)

	// g.Go blocks while every slot is busy, so launching stays off this goroutine.
	done := make(chan struct{})
	go func() {
		for _, symbol := range unique {
			if ctx.Err() != nil {
				break
			}
			symbol := symbol
			g.Go(func() error {
				res := c.fetchOne(ctx, session, symbol, barTimeframe, barCount)
				mu.Lock()
				if !sealed {
					byKey[symbol] = res
				}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.release(session)
	case <-ctx.Done():
		// Late fetches are discarded; the session is released once they settle.
		go func() {
			<-done
			c.release(session)
		}()
	}

	mu.Lock()
	sealed = true
	for _, s := range unique {
		if _, ok := byKey[s]; !ok {
			byKey[s] = failed(s, fmt.Errorf("%w: %v", ErrFetchTimeout, ctx.Err()))
		}
	}
	results := inOrder(symbols, byKey)
	mu.Unlock()

	var failures int
	for _, r := range results {
		if !r.OK() {
			failures++
		}
	}
	c.log.Debug().Str("session", session.ID()).Int("symbols", len(unique)).Int("failed", failures).Msg("batch fetched")
	return results
}

func (c *Collector) fetchOne(ctx context.Context, session Session, symbol, barTimeframe string, barCount int) model.SeriesResult {
	var lastErr error
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.RetryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return failed(symbol, lastErr)
			}
		}
		res, err := session.FetchSeries(ctx, symbol, barTimeframe, barCount)
		if err == nil {
			return sanitize(symbol, res, c.log)
		}
		lastErr = err
		c.log.Warn().Err(err).Str("symbol", symbol).Int("attempt", attempt+1).Msg("fetch failed")
		if ctx.Err() != nil {
			break
		}
	}
	return failed(symbol, lastErr)
}

// release closes the session; a failure is logged and never surfaces to the caller.
func (c *Collector) release(session Session) {
	if err := session.Close(); err != nil {
		relErr := &model.SessionReleaseError{SessionID: session.ID(), Err: err}
		c.log.Warn().Err(relErr).Msg("session release failed")
	}
}

// sanitize drops bars that would poison downstream arithmetic.
func sanitize(symbol string, res *model.SeriesResult, log zerolog.Logger) model.SeriesResult {
	if res == nil {
		return model.SeriesResult{Symbol: symbol, Series: []model.PricePoint{}}
	}
	out := *res
	out.Symbol = symbol
	clean := make([]model.PricePoint, 0, len(res.Series))
	for _, p := range res.Series {
		if err := p.Validate(); err != nil {
			log.Debug().Err(err).Str("symbol", symbol).Msg("dropping bar")
			continue
		}
		clean = append(clean, p)
	}
	out.Series = clean
	return out
}

func failed(symbol string, err error) model.SeriesResult {
	return model.SeriesResult{Symbol: symbol, Err: &model.UpstreamFetchError{Symbol: symbol, Err: err}}
}

func distinct(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func inOrder(symbols []string, byKey map[string]model.SeriesResult) []model.SeriesResult {
	out := make([]model.SeriesResult, len(symbols))
	for i, s := range symbols {
		out[i] = byKey[s]
	}
	return out
}
