package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InvestorHelper/internal/model"
)

type fakeVendor struct {
	mu      sync.Mutex
	deleted []string
	noWeek  bool
}

func (v *fakeVendor) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"sess-1"}`))
	})
	mux.HandleFunc("/api/v1/sessions/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		v.mu.Lock()
		v.deleted = append(v.deleted, r.URL.Path)
		v.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/v1/bars", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sess-1", r.Header.Get("X-Session-ID"))
		q := r.URL.Query()
		switch {
		case q.Get("symbol") == "MISSING":
			w.WriteHeader(http.StatusNotFound)
			return
		case q.Get("timeframe") == "1wk" && v.noWeek:
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(restSeries{
			Symbol:   q.Get("symbol"),
			Currency: "EUR",
			Bars: []restBar{
				// Tue 2024-01-09, Wed 2024-01-10, Mon 2024-01-15
				{Timestamp: 1704758400, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100},
				{Timestamp: 1704844800, Open: 10.5, High: 12, Low: 10, Close: 11, Volume: 50},
				{Timestamp: 1705276800, Open: 11, High: 11.5, Low: 8, Close: 9, Volume: 70},
			},
		})
	})
	return mux
}

func TestRestFetcher_SessionLifecycle(t *testing.T) {
	vendor := &fakeVendor{}
	srv := httptest.NewServer(vendor.handler(t))
	defer srv.Close()

	f := NewRestFetcher(srv.URL, "secret", "", 100)
	session, err := f.OpenSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", session.ID())

	res, err := session.FetchSeries(context.Background(), "SAP", "1d", 3)
	require.NoError(t, err)
	require.Len(t, res.Series, 3)
	assert.True(t, res.Series[0].Time < res.Series[1].Time)
	assert.Equal(t, "EUR", res.Meta.Currency)

	missing, err := session.FetchSeries(context.Background(), "MISSING", "1d", 3)
	require.NoError(t, err)
	assert.Empty(t, missing.Series)

	require.NoError(t, session.Close())
	assert.Equal(t, []string{"/api/v1/sessions/sess-1"}, vendor.deleted)
}

func TestRestFetcher_WeeklyFallback(t *testing.T) {
	vendor := &fakeVendor{noWeek: true}
	srv := httptest.NewServer(vendor.handler(t))
	defer srv.Close()

	session, err := NewRestFetcher(srv.URL, "secret", "", 100).OpenSession(context.Background())
	require.NoError(t, err)
	defer session.Close()

	res, err := session.FetchSeries(context.Background(), "SAP", "1wk", 2)
	require.NoError(t, err)
	require.Len(t, res.Series, 2)
	assert.Equal(t, 12.0, res.Series[0].High)
	assert.Equal(t, 11.0, res.Series[0].Close)
	assert.Equal(t, 150.0, res.Series[0].Volume)
}

func TestAggregateDailyToWeekly_Empty(t *testing.T) {
	assert.Empty(t, aggregateDailyToWeekly(nil))
	assert.Len(t, aggregateDailyToWeekly([]model.PricePoint{{Time: 1704758400, Close: 1}}), 1)
}
