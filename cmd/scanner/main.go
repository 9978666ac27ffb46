package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/api"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/config"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/data"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/pubsub"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/recommendation"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/scanner"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/storage"
	"github.com/mohamedkhairy/krw-coin-scanner/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting scanner service",
		logger.Int("port", cfg.Scanner.Port),
		logger.Int("worker_count", cfg.Scanner.WorkerCount),
		logger.Duration("scan_interval", cfg.Scanner.ScanInterval),
		logger.String("store", cfg.Store.Type),
	)

	// Recommendation store
	var (
		store       recommendation.Store
		redisClient storage.RedisClient
	)
	switch cfg.Store.Type {
	case "redis":
		redisClient, err = pubsub.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to initialize Redis client", logger.ErrorField(err))
		}
		defer redisClient.Close()
		store = recommendation.NewRedisStore(redisClient, cfg.Store.TTL)
	default:
		store = recommendation.NewMemoryStore()
	}
	publisher := recommendation.NewPublisher(store)

	// Scan pipeline over the exchange REST API
	upbit := data.NewUpbitClient(cfg.Upbit)
	service := scanner.NewService(upbit, scanner.ServiceConfigFrom(cfg.Scanner))

	scanLoop := scanner.NewScanLoop(scanner.ScanLoopConfig{
		ScanInterval: cfg.Scanner.ScanInterval,
		MaxScanTime:  cfg.Scanner.MaxScanTime,
	}, service, publisher)
	if err := scanLoop.Start(); err != nil {
		logger.Fatal("Failed to start scan loop", logger.ErrorField(err))
	}

	// Live price refresh between scans
	var priceSync *scanner.PriceSync
	if cfg.PriceSync.Enabled {
		var streamer data.PriceStreamer
		if cfg.PriceSync.Mode == scanner.PriceSyncModeStream {
			streamer = data.NewUpbitStreamer(data.DefaultWebSocketConfig(cfg.Upbit.WebSocketURL))
		}
		priceSync, err = scanner.NewPriceSync(scanner.PriceSyncConfig{
			Interval: cfg.PriceSync.Interval,
			Mode:     cfg.PriceSync.Mode,
		}, publisher, upbit, streamer)
		if err != nil {
			logger.Fatal("Failed to initialize price sync", logger.ErrorField(err))
		}
		if err := priceSync.Start(); err != nil {
			logger.Fatal("Failed to start price sync", logger.ErrorField(err))
		}
	}

	// HTTP server: recommendations, health and metrics
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Scanner.Port),
		Handler:           api.NewRouter(store, cfg.API.RateLimitRPS),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", logger.ErrorField(err))
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutting down scanner service")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Error shutting down HTTP server", logger.ErrorField(err))
	}

	if priceSync != nil {
		priceSync.Stop()
	}
	scanLoop.Stop()

	stats := scanLoop.GetStats()
	logger.Info("Scanner service stopped",
		logger.Int64("scan_cycles", stats.ScanCycles),
		logger.Int64("publish_failures", stats.PublishFailures),
	)
}
