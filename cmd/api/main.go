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
	"github.com/mohamedkhairy/krw-coin-scanner/internal/pubsub"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/recommendation"
	"github.com/mohamedkhairy/krw-coin-scanner/pkg/logger"
)

// The API service serves recommendations published to Redis by the scanner
// service, from a local copy kept in sync through pub/sub notices.
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

	logger.Info("Starting REST API service",
		logger.Int("port", cfg.API.Port),
		logger.Int("rate_limit_rps", cfg.API.RateLimitRPS),
	)

	redisClient, err := pubsub.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to initialize Redis client", logger.ErrorField(err))
	}
	defer redisClient.Close()

	remote := recommendation.NewRedisStore(redisClient, cfg.Store.TTL)
	mirror := recommendation.NewMirror(remote, redisClient, recommendation.NewMemoryStore(), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mirrorDone := make(chan struct{})
	go func() {
		defer close(mirrorDone)
		if err := mirror.Run(ctx); err != nil {
			logger.Error("Recommendation mirror stopped", logger.ErrorField(err))
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           api.NewRouter(mirror.Local(), cfg.API.RateLimitRPS),
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
	logger.Info("Shutting down REST API service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down HTTP server", logger.ErrorField(err))
	}

	cancel()
	<-mirrorDone
	logger.Info("REST API service stopped")
}
