package screener

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InvestorHelper/internal/model"
)

func TestFileUniverse_FallbackWhenMissing(t *testing.T) {
	u := NewFileUniverse(filepath.Join(t.TempDir(), "missing.json"))
	rows, err := u.Rows(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, len(DefaultUniverse))
}

func TestFileUniverse_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.json")
	u := NewFileUniverse(path)
	want := []model.ScreenerRow{{Symbol: "SAP", Price: 120, ChangePercent: 1.5, Sector: "Technology"}}
	require.NoError(t, u.Save(want))

	got, err := u.Rows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileUniverse_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err := NewFileUniverse(path).Rows(context.Background())
	assert.Error(t, err)
}

func TestRefresh(t *testing.T) {
	rows := []model.ScreenerRow{
		{Symbol: "A", Price: 1, ChangePercent: 9},
		{Symbol: "B", Price: 2, ChangePercent: 9},
		{Symbol: "C", Price: 3, ChangePercent: 9},
	}
	results := []model.SeriesResult{
		{Symbol: "A", Meta: model.InstrumentMeta{RegularMarketPrice: 110, PreviousClose: 100, Currency: "USD"},
			Series: []model.PricePoint{{Time: 1, Close: 109, Volume: 5}, {Time: 2, Close: 110, Volume: 7}}},
		{Symbol: "B", Err: &model.UpstreamFetchError{Symbol: "B"}},
		{Symbol: "C", Series: []model.PricePoint{{Time: 1, Close: 4}}},
	}

	out := Refresh(rows, results)
	assert.Equal(t, 110.0, out[0].Price)
	assert.InDelta(t, 10, out[0].ChangePercent, 1e-9)
	assert.Equal(t, 12.0, out[0].Volume)
	assert.Equal(t, "USD", out[0].Currency)

	assert.Equal(t, rows[1], out[1], "failed fetch keeps the previous quote")

	assert.Equal(t, 4.0, out[2].Price)
	assert.Equal(t, 9.0, out[2].ChangePercent, "no previous close leaves the change untouched")
	assert.Equal(t, 1.0, rows[0].Price, "input is not mutated")
}
