package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/azure/brand-visibility-bot/internal/analysis"
	"github.com/azure/brand-visibility-bot/internal/api"
	"github.com/azure/brand-visibility-bot/internal/cache"
	"github.com/azure/brand-visibility-bot/internal/config"
	"github.com/azure/brand-visibility-bot/internal/llm"
	"github.com/azure/brand-visibility-bot/internal/notifications"
	"github.com/azure/brand-visibility-bot/internal/querygen"
	"github.com/azure/brand-visibility-bot/internal/scheduler"
	"github.com/azure/brand-visibility-bot/internal/storage"
	"github.com/azure/brand-visibility-bot/internal/store"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Brand Visibility Bot")

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	recordStore, err := store.Open(startCtx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer recordStore.Close()

	if err := recordStore.Migrate(); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}

	completer, err := llm.NewFromConfig(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize language model: %v", err)
	}
	logrus.Infof("Using language model provider %s", completer.GetName())

	// The archive, cache and notifications are optional
	var archive storage.StorageInterface
	if cfg.StorageAccount != "" {
		azureStorage, err := storage.NewAzureStorage(startCtx, cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			logrus.Fatalf("Failed to initialize storage: %v", err)
		}
		archive = azureStorage
	}

	var viewCache cache.CacheInterface = cache.NoopCache{}
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(startCtx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			logrus.Warnf("Redis unavailable, serving views uncached: %v", err)
		} else {
			defer redisCache.Close()
			viewCache = redisCache
		}
	}

	var notificationService notifications.NotificationInterface
	if cfg.NotificationsEnabled() {
		notificationService = notifications.NewService(cfg)
	}

	analysisService := analysis.NewService(cfg, recordStore, completer, archive, viewCache, notificationService)
	generator := querygen.NewService(completer, cfg.LLMMaxTokens)

	schedulerService := scheduler.NewService(cfg, analysisService, archive)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	apiServer := api.NewServer(cfg, recordStore, analysisService, generator, archive, viewCache)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AnalysisTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
