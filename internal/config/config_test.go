package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InvestorHelper/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, time.Hour, cfg.CacheTTL())
	assert.Equal(t, 20*time.Second, cfg.FetchTimeout())
	assert.Equal(t, 8, cfg.Engine.MaxConcurrency)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
data_source:
  provider: rest
  base_url: https://prices.example.com
  retries: 2
engine:
  max_concurrency: 4
  fetch_timeout: 5s
cache:
  ttl: 30m
wallets:
  main:
    - symbol: AAPL
      quantity: 10
      cost_basis_per_unit: 150.5
      acquired_at: 2023-01-15T00:00:00Z
      sector: Technology
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 2, cfg.DataSource.Retries)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout())
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL())
	require.Len(t, cfg.Wallets["main"], 1)
	h := cfg.Wallets["main"][0]
	assert.Equal(t, 150.5, h.CostBasisPerUnit)
	assert.Equal(t, 2023, h.AcquiredAt.Year())
	assert.Equal(t, "Technology", h.Sector)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("PRICE_API_BASE_URL", "https://vendor.example.com")
	t.Setenv("CACHE_TTL", "2h")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("MOVERS_CRON", "0 */5 * * * *")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "rest", cfg.DataSource.Provider)
	assert.Equal(t, 2*time.Hour, cfg.CacheTTL())
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, "0 */5 * * * *", cfg.Schedule.MoversCron)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"rest without url", func(c *Config) { c.DataSource.Provider = "rest"; c.DataSource.BaseURL = "" }},
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "carrier-pigeon" }},
		{"too many retries", func(c *Config) { c.DataSource.Retries = 9 }},
		{"bad duration", func(c *Config) { c.Cache.TTL = "soon" }},
		{"negative quantity", func(c *Config) {
			c.Wallets = map[string][]model.Holding{"w": {{Symbol: "X", Quantity: -1}}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
