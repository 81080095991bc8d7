package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"InvestorHelper/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		RequestTimeout string   `yaml:"request_timeout"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	DataSource struct {
		Provider  string `yaml:"provider"` // "yahoo", "rest" or "mock"
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		RateLimit int    `yaml:"rate_limit"`
		Retries   int    `yaml:"retries"`
	} `yaml:"data_source"`
	Engine struct {
		MaxConcurrency int    `yaml:"max_concurrency"`
		FetchTimeout   string `yaml:"fetch_timeout"`
	} `yaml:"engine"`
	Cache struct {
		TTL           string `yaml:"ttl"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
	} `yaml:"cache"`
	Schedule struct {
		MoversCron string `yaml:"movers_cron"`
		SweepCron  string `yaml:"sweep_cron"`
	} `yaml:"schedule"`
	Screener struct {
		UniverseFile string `yaml:"universe_file"`
		WarmTopN     int    `yaml:"warm_top_n"`
	} `yaml:"screener"`
	Database struct {
		SQLitePath    string `yaml:"sqlite_path"`
		RecordHistory bool   `yaml:"record_history"`
	} `yaml:"database"`
	// Wallets seeds holdings into the store at startup.
	Wallets map[string][]model.Holding `yaml:"wallets"`
	Proxy   string                     `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
func Load(path string) (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PRICE_API_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
		if cfg.DataSource.Provider == "" {
			cfg.DataSource.Provider = "rest"
		}
	}
	if v := os.Getenv("PRICE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		cfg.Cache.TTL = v
	}
	if v := os.Getenv("MOVERS_CRON"); v != "" {
		cfg.Schedule.MoversCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == "" {
		cfg.Server.RequestTimeout = "60s"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.DataSource.RateLimit == 0 {
		cfg.DataSource.RateLimit = 5
	}
	if cfg.Engine.MaxConcurrency == 0 {
		cfg.Engine.MaxConcurrency = 8
	}
	if cfg.Engine.FetchTimeout == "" {
		cfg.Engine.FetchTimeout = "20s"
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = "1h"
	}
	if cfg.Schedule.MoversCron == "" {
		cfg.Schedule.MoversCron = "0 */15 * * * *"
	}
	if cfg.Schedule.SweepCron == "" {
		cfg.Schedule.SweepCron = "0 0 * * * *"
	}
	if cfg.Screener.UniverseFile == "" {
		cfg.Screener.UniverseFile = "data/universe.json"
	}
	if cfg.Screener.WarmTopN == 0 {
		cfg.Screener.WarmTopN = 10
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/investor_helper.db"
	}

	return cfg, nil
}

// parseDuration parses d, returning fallback when it is empty or malformed.
func parseDuration(d string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(d); err == nil && v > 0 {
		return v
	}
	return fallback
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return parseDuration(c.Server.RequestTimeout, 60*time.Second)
}

// FetchTimeout returns the per-batch upstream fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	return parseDuration(c.Engine.FetchTimeout, 20*time.Second)
}

// CacheTTL returns the price series cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return parseDuration(c.Cache.TTL, time.Hour)
}

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	if c.DataSource.Retries < 0 || c.DataSource.Retries > 5 {
		return fmt.Errorf("data_source.retries must be between 0 and 5")
	}
	if c.Engine.MaxConcurrency < 1 {
		return fmt.Errorf("engine.max_concurrency must be positive")
	}
	for name, d := range map[string]string{
		"server.request_timeout": c.Server.RequestTimeout,
		"engine.fetch_timeout":   c.Engine.FetchTimeout,
		"cache.ttl":              c.Cache.TTL,
	} {
		if v, err := time.ParseDuration(d); err != nil || v <= 0 {
			return fmt.Errorf("%s: invalid duration %q", name, d)
		}
	}
	for id, holdings := range c.Wallets {
		for _, h := range holdings {
			if h.Symbol == "" || h.Quantity < 0 || h.CostBasisPerUnit < 0 {
				return fmt.Errorf("wallets.%s: invalid holding %+v", id, h)
			}
		}
	}
	return nil
}
