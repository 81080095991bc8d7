package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"InvestorHelper/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public chart API.
type YahooFetcher struct {
	BaseURL   string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker

	transport http.RoundTripper
	timeout   time.Duration
	limiter   *rate.Limiter
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string, requestsPerSecond int) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		transport: transport,
		timeout:   30 * time.Second,
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// OpenSession returns a session with its own cookie jar. Closing it drops idle connections.
func (f *YahooFetcher) OpenSession(_ context.Context) (Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("yahoo cookie jar: %w", err)
	}
	transport := f.transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &yahooSession{
		id:      uuid.NewString(),
		fetcher: f,
		client:  &http.Client{Timeout: f.timeout, Transport: transport, Jar: jar},
	}, nil
}

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

type yahooSession struct {
	id      string
	fetcher *YahooFetcher
	client  *http.Client
}

func (s *yahooSession) ID() string { return s.id }

func (s *yahooSession) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				ExchangeName       string  `json:"exchangeName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func at(values []interface{}, i int) float64 {
	if i >= len(values) {
		return 0
	}
	return toFloat(values[i])
}

// yahooInterval maps bar timeframes to chart API intervals.
var yahooInterval = map[string]string{
	"1m": "1m", "5m": "5m", "15m": "15m", "30m": "30m",
	"1h": "60m", "1d": "1d", "1wk": "1wk", "1mo": "1mo",
}

// yahooRange picks the smallest chart range covering barCount bars.
func yahooRange(barTimeframe string, barCount int) string {
	span := barDuration(barTimeframe) * time.Duration(barCount)
	switch {
	case span <= 24*time.Hour:
		return "1d"
	case span <= 5*24*time.Hour:
		return "5d"
	case span <= 31*24*time.Hour:
		return "1mo"
	case span <= 92*24*time.Hour:
		return "3mo"
	case span <= 183*24*time.Hour:
		return "6mo"
	case span <= 366*24*time.Hour:
		return "1y"
	case span <= 2*366*24*time.Hour:
		return "2y"
	case span <= 5*366*24*time.Hour:
		return "5y"
	case span <= 10*366*24*time.Hour:
		return "10y"
	default:
		return "max"
	}
}

func (s *yahooSession) FetchSeries(ctx context.Context, symbol, barTimeframe string, barCount int) (*model.SeriesResult, error) {
	interval, ok := yahooInterval[barTimeframe]
	if !ok {
		return nil, fmt.Errorf("yahoo: unsupported bar timeframe %q", barTimeframe)
	}
	if err := s.fetcher.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		s.fetcher.BaseURL, url.PathEscape(s.fetcher.yahooSymbol(symbol)), interval, yahooRange(barTimeframe, barCount))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return &model.SeriesResult{Symbol: symbol, Series: []model.PricePoint{}, Meta: model.InstrumentMeta{Symbol: symbol}}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}

	result := &model.SeriesResult{Symbol: symbol, Series: []model.PricePoint{}, Meta: model.InstrumentMeta{Symbol: symbol}}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return result, nil
	}

	r := chart.Chart.Result[0]
	result.Meta = model.InstrumentMeta{
		Symbol:             symbol,
		Currency:           r.Meta.Currency,
		ExchangeName:       r.Meta.ExchangeName,
		RegularMarketPrice: r.Meta.RegularMarketPrice,
		PreviousClose:      r.Meta.PreviousClose,
	}
	if len(r.Indicators.Quote) == 0 {
		return result, nil
	}
	quote := r.Indicators.Quote[0]
	bars := make([]model.PricePoint, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.PricePoint{
			Time:   ts,
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: at(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time < bars[j].Time })
	if barCount > 0 && len(bars) > barCount {
		bars = bars[len(bars)-barCount:]
	}
	result.Series = bars
	return result, nil
}
