package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{"chart":{"result":[{"meta":{"currency":"USD","symbol":"AAPL","exchangeName":"NMS","regularMarketPrice":190.5,"chartPreviousClose":188},
"timestamp":[300,100,200],
"indicators":{"quote":[{"open":[3,1,null],"high":[3,1,null],"low":[3,1,null],"close":[3,1,null],"volume":[30,10,null]}]}}],"error":null}}`

func TestYahooSession_FetchSeries(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", 100)
	f.BaseURL = srv.URL
	session, err := f.OpenSession(context.Background())
	require.NoError(t, err)
	defer session.Close()

	res, err := session.FetchSeries(context.Background(), "SPX", "1h", 744)
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/^GSPC", gotPath)
	assert.Equal(t, "interval=60m&range=1mo", gotQuery)

	require.Len(t, res.Series, 2, "null bar is skipped")
	assert.Equal(t, int64(100), res.Series[0].Time)
	assert.Equal(t, int64(300), res.Series[1].Time)
	assert.Equal(t, "USD", res.Meta.Currency)
	assert.Equal(t, 190.5, res.Meta.RegularMarketPrice)
}

func TestYahooSession_UnknownSymbolIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", 100)
	f.BaseURL = srv.URL
	session, err := f.OpenSession(context.Background())
	require.NoError(t, err)

	res, err := session.FetchSeries(context.Background(), "NOPE", "1d", 10)
	require.NoError(t, err)
	assert.Empty(t, res.Series)
}

func TestYahooSession_UnsupportedTimeframe(t *testing.T) {
	session, err := NewYahooFetcher("", 100).OpenSession(context.Background())
	require.NoError(t, err)
	_, err = session.FetchSeries(context.Background(), "AAPL", "3d", 10)
	assert.Error(t, err)
}

func TestYahooRange(t *testing.T) {
	tests := []struct {
		tf    string
		count int
		want  string
	}{
		{"5m", 288, "1d"},
		{"30m", 336, "1mo"},
		{"1d", 366, "1y"},
		{"1wk", 261, "5y"},
		{"1mo", 600, "max"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, yahooRange(tt.tf, tt.count), "%s x %d", tt.tf, tt.count)
	}
}
