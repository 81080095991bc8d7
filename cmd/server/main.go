package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"InvestorHelper/internal/cache"
	"InvestorHelper/internal/collector"
	"InvestorHelper/internal/config"
	"InvestorHelper/internal/logger"
	"InvestorHelper/internal/movers"
	"InvestorHelper/internal/recorder"
	"InvestorHelper/internal/scheduler"
	"InvestorHelper/internal/screener"
	"InvestorHelper/internal/server"
	"InvestorHelper/internal/service"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLog := logger.New(logger.Config{})
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(log)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("config", cfgPath).Msg("InvestorHelper starting")

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "rest":
		fetcher = collector.NewRestFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.RateLimit)
	case "mock":
		fetcher = &collector.MockFetcher{Price: 100}
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.RateLimit)
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	col := collector.NewCollector(fetcher, log)
	col.MaxConcurrency = cfg.Engine.MaxConcurrency
	col.Timeout = cfg.FetchTimeout()
	col.Retries = cfg.DataSource.Retries

	// Init cache
	var (
		seriesCache cache.SeriesCache
		sweeper     scheduler.Sweeper
	)
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.CacheTTL(), log)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
		} else {
			seriesCache = rc
			defer rc.Close()
		}
	}
	if seriesCache == nil {
		mc := cache.NewMemoryCache(cfg.CacheTTL())
		seriesCache, sweeper = mc, mc
	}

	// Init store and recorder
	if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0755); err != nil {
		log.Fatal().Err(err).Msg("create data directory")
	}
	store, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init sqlite store")
	}
	defer store.Close()
	seedWallets(ctx, store, cfg, log)

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.RecordHistory {
		rec = store
	}

	universe := screener.NewFileUniverse(cfg.Screener.UniverseFile)
	ranker := movers.NewRanker(seriesCache, col, log)
	svc := service.New(store, col, ranker, universe, log, service.WithRecorder(rec))

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, ranker, universe, log)
	sched.Saver = universe
	sched.Sweeper = sweeper
	sched.WarmTopN = cfg.Screener.WarmTopN
	if err := sched.RegisterAll(cfg.Schedule.MoversCron, cfg.Schedule.SweepCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	// Optional: warm the movers cache immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		go sched.RunWarmNow()
	}

	srv := server.New(server.Config{
		Port:           cfg.Server.Port,
		Log:            log,
		Engine:         svc,
		History:        store,
		RequestTimeout: cfg.RequestTimeout(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	cancel()
	log.Info().Msg("InvestorHelper stopped")
}

// seedWallets writes configured wallets into the store.
func seedWallets(ctx context.Context, store *recorder.SQLiteRecorder, cfg *config.Config, log zerolog.Logger) {
	for walletID, holdings := range cfg.Wallets {
		for _, h := range holdings {
			if err := store.UpsertHolding(ctx, walletID, h); err != nil {
				log.Error().Err(err).Str("wallet", walletID).Str("symbol", h.Symbol).Msg("seed holding")
			}
		}
		log.Info().Str("wallet", walletID).Int("holdings", len(holdings)).Msg("wallet seeded")
	}
}
