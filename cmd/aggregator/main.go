package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oddsylabs/oddsy/internal/catalog"
	"github.com/oddsylabs/oddsy/internal/ingest"
	"github.com/oddsylabs/oddsy/internal/kalshi"
	"github.com/oddsylabs/oddsy/internal/normalize"
	"github.com/oddsylabs/oddsy/internal/polymarket"
	"github.com/oddsylabs/oddsy/internal/store"
)

func main() {
	// .env is optional; deployments set real env vars.
	_ = godotenv.Load()

	configPath := flag.String("config", "configs/aggregator/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := readConfig(configPath)
	if err != nil {
		log.Fatalf("Couldn't read config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := store.Open(ctx, store.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
		MaxConns: cfg.Database.PoolSize,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Fatalf("Couldn't connect to database: %v", err)
	}
	defer s.Close()
	logger.Info("connected to database", "host", cfg.Database.Host, "database", cfg.Database.Database)

	kalshiSource := kalshi.New(
		cfg.Platforms.Kalshi.APIURL,
		cfg.Platforms.Kalshi.APIKeyID,
		cfg.Platforms.Kalshi.APIPrivateKey.PrivateKey,
	)
	polymarketSource := polymarket.New(polymarket.Config{
		GammaURL:     cfg.Platforms.Polymarket.GammaURL,
		ClobURL:      cfg.Platforms.Polymarket.ClobURL,
		WebsocketURL: cfg.Platforms.Polymarket.WebsocketURL,
	}, logger)

	cat := catalog.New(catalog.DefaultConfig(), logger)
	norm := normalize.New(normalize.LogRecorder{Logger: logger})
	feed := ingest.NewTradeFeed(logger)

	runner := ingest.NewRunner(ingest.Config{
		RefreshInterval: cfg.Ingest.RefreshInterval.Duration(),
		TradeWindow:     cfg.Ingest.TradeWindow.Duration(),
		TopMarkets:      cfg.Ingest.TopMarkets,
	}, cat, norm, []ingest.Source{kalshiSource, polymarketSource}, feed, logger)

	writer := ingest.NewSnapshotWriter(
		cat, s, feed,
		cfg.Snapshot.Interval.Duration(),
		cfg.Snapshot.TradeRetention.Duration(),
		logger,
	)

	go writer.Start(ctx)
	go func() {
		if err := polymarketSource.Stream(ctx); err != nil && ctx.Err() == nil {
			logger.Error("polymarket stream failed", "error", err)
		}
	}()

	runner.Start(ctx)
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}
