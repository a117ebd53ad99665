package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"PortfolioLens/internal/cache"
	"PortfolioLens/internal/config"
	"PortfolioLens/internal/marketdata"
	"PortfolioLens/internal/portfolio"
	"PortfolioLens/internal/renderer"
	"PortfolioLens/internal/scheduler"
	"PortfolioLens/internal/server"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	log.Info().Msg("PortfolioLens starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	// Init market data provider
	var provider marketdata.Provider
	if cfg.MockData {
		provider = &marketdata.MockProvider{}
	} else {
		av := marketdata.NewAlphaVantageClient(cfg.AlphaVantage.BaseURL, cfg.AlphaVantage.APIKey, cfg.Proxy)
		iex := marketdata.NewIEXClient(cfg.IEX.BaseURL, cfg.IEX.Token, cfg.Proxy)
		provider = marketdata.Compose(av, iex)
	}
	log.Info().Str("provider", provider.Name()).Msg("market data source ready")

	// Init cache, falling back to in-memory when sqlite is unavailable
	var store cache.Store
	if cfg.Cache.SQLitePath != "" {
		ss, err := cache.NewSQLiteStore(cfg.Cache.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite cache failed, using memory store")
			store = cache.NewMemoryStore()
		} else {
			store = ss
			defer ss.Close()
		}
	} else {
		store = cache.NewMemoryStore()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init portfolio manager and scheduler
	mgr := portfolio.NewManager(cfg.Universe, log)
	latest := renderer.NewLatest()
	rend := renderer.Multi{latest, renderer.NewLog(log)}
	sched := scheduler.New(ctx, mgr, provider, store, rend,
		time.Duration(cfg.Schedule.RetryDelay), log)
	if err := sched.RegisterPolling(cfg.Schedule.QuoteCron); err != nil {
		log.Fatal().Err(err).Msg("register polling task")
	}
	sched.Start()
	defer sched.Stop()

	// Init HTTP server
	srv := server.New(cfg.Server.ListenAddr, sched, latest, log)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	log.Info().Str("addr", cfg.Server.ListenAddr).Msg("PortfolioLens is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server shutdown")
	}
	cancel()
	log.Info().Msg("PortfolioLens stopped")
}
