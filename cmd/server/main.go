package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"esltrainer/internal/api"
	"esltrainer/internal/app"
	"esltrainer/internal/cache"
	"esltrainer/internal/config"
	"esltrainer/internal/scheduler"
)

func main() {
	// Initialize logger
	logger, err := app.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting ESL trainer API")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	// Response cache is optional; the store stays a nil interface without Redis
	var store cache.Store
	if cfg.Redis.Addr != "" {
		redisStore, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, "esltrainer:", logger)
		if err != nil {
			logger.Warn("Redis unavailable, response cache disabled", zap.Error(err))
		} else {
			defer redisStore.Close()
			store = redisStore
		}
	}

	// Start cleanup job in background
	jobs := scheduler.New(a.Cleanup, scheduler.DefaultCleanupInterval, logger)
	if err := jobs.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer jobs.Stop()

	router := api.NewRouter(api.Config{
		Auth:       a.Auth,
		OAuth:      a.OAuth,
		Progress:   a.Progress,
		Scenarios:  a.Scenarios,
		Vocabulary: a.Vocabulary,
		Content:    a.Content,
		Speech:     a.Speech,
		Cache:      store,
		CacheTTL:   cfg.Redis.TTL,
		Health:     a.DB.PingContext,
		ClientURL:  cfg.ClientURL,
		Origins:    cfg.CORS,
		Production: cfg.IsProduction(),
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("HTTP server started", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	cancel()

	logger.Info("Server stopped gracefully")
}
