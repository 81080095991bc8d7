package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"InvestorHelper/internal/model"
)

// RestFetcher implements Fetcher against a vendor REST API with explicit sessions.
type RestFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	limiter *rate.Limiter
}

// NewRestFetcher creates a new fetcher with optional proxy support.
func NewRestFetcher(baseURL, apiKey, proxyURL string, requestsPerSecond int) *RestFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 10
	}
	return &RestFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

func (f *RestFetcher) Name() string { return "rest" }

func (f *RestFetcher) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// OpenSession registers a session with the vendor.
func (f *RestFetcher) OpenSession(ctx context.Context) (Session, error) {
	req, err := f.newRequest(ctx, http.MethodPost, f.BaseURL+"/api/v1/sessions", bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("open session: status %d, body: %s", resp.StatusCode, string(body))
	}
	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if result.ID == "" {
		return nil, fmt.Errorf("open session: empty session id")
	}
	return &restSession{id: result.ID, fetcher: f}, nil
}

type restSession struct {
	id      string
	fetcher *RestFetcher
}

func (s *restSession) ID() string { return s.id }

func (s *restSession) Close() error {
	// Release must not depend on the batch context, which may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := s.fetcher.newRequest(ctx, http.MethodDelete, s.fetcher.BaseURL+"/api/v1/sessions/"+url.PathEscape(s.id), nil)
	if err != nil {
		return err
	}
	resp, err := s.fetcher.Client.Do(req)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("close session: status %d", resp.StatusCode)
	}
	return nil
}

// restBar is the expected JSON shape from the vendor API.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type restSeries struct {
	Symbol   string    `json:"symbol"`
	Currency string    `json:"currency"`
	Exchange string    `json:"exchange"`
	Bars     []restBar `json:"bars"`
}

func (s *restSession) FetchSeries(ctx context.Context, symbol, barTimeframe string, barCount int) (*model.SeriesResult, error) {
	bars, meta, err := s.fetchBars(ctx, symbol, barTimeframe, barCount)
	if err != nil && barTimeframe == "1wk" {
		// Fallback: fetch enough daily bars and aggregate to weekly
		daily, _, dailyErr := s.fetchBars(ctx, symbol, "1d", barCount*7)
		if dailyErr != nil {
			return nil, fmt.Errorf("weekly fetch failed: %w; daily fallback also failed: %w", err, dailyErr)
		}
		bars, err = aggregateDailyToWeekly(daily), nil
		meta = model.InstrumentMeta{Symbol: symbol}
	}
	if err != nil {
		return nil, err
	}
	return &model.SeriesResult{Symbol: symbol, Series: bars, Meta: meta}, nil
}

func (s *restSession) fetchBars(ctx context.Context, symbol, barTimeframe string, barCount int) ([]model.PricePoint, model.InstrumentMeta, error) {
	meta := model.InstrumentMeta{Symbol: symbol}
	if err := s.fetcher.limiter.Wait(ctx); err != nil {
		return nil, meta, fmt.Errorf("rate limit wait: %w", err)
	}
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("timeframe", barTimeframe)
	q.Set("limit", fmt.Sprint(barCount))
	req, err := s.fetcher.newRequest(ctx, http.MethodGet, s.fetcher.BaseURL+"/api/v1/bars?"+q.Encode(), nil)
	if err != nil {
		return nil, meta, err
	}
	req.Header.Set("X-Session-ID", s.id)

	resp, err := s.fetcher.Client.Do(req)
	if err != nil {
		return nil, meta, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return []model.PricePoint{}, meta, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, meta, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var payload restSeries
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, meta, fmt.Errorf("decode bars: %w", err)
	}
	meta.Currency = payload.Currency
	meta.ExchangeName = payload.Exchange

	bars := make([]model.PricePoint, len(payload.Bars))
	for i, b := range payload.Bars {
		bars[i] = model.PricePoint{
			Time:   b.Timestamp,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time < bars[j].Time })
	return bars, meta, nil
}

// aggregateDailyToWeekly converts daily bars into ISO-week bars.
func aggregateDailyToWeekly(daily []model.PricePoint) []model.PricePoint {
	weekly := []model.PricePoint{}
	var week model.PricePoint
	var weekKey int

	for i, d := range daily {
		year, isoWeek := d.At().UTC().ISOWeek()
		key := year*100 + isoWeek

		if i == 0 || key != weekKey {
			if i > 0 {
				weekly = append(weekly, week)
			}
			week = d
			weekKey = key
			continue
		}
		if d.High > week.High {
			week.High = d.High
		}
		if d.Low < week.Low {
			week.Low = d.Low
		}
		week.Close = d.Close
		week.Volume += d.Volume
	}
	if len(daily) > 0 {
		weekly = append(weekly, week)
	}
	return weekly
}
