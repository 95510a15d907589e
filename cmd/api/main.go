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

	"github.com/minsu/vericlip/internal/api"
	"github.com/minsu/vericlip/internal/api/middleware"
	"github.com/minsu/vericlip/internal/config"
	"github.com/minsu/vericlip/internal/lock"
	"github.com/minsu/vericlip/internal/logger"
	"github.com/minsu/vericlip/internal/rankcache"
	"github.com/minsu/vericlip/internal/repository"
	"github.com/minsu/vericlip/internal/service"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	baseLogger := logger.NewFromEnv(logger.LoadFromEnv())
	logger.SetDefaultLogger(baseLogger)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		baseLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	analysisRepo := repository.NewAnalysisRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// Redis backs the distributed lock and the ranking-cache notifier.
	// A memory lock backend runs without Redis entirely.
	var redisClient *redis.Client
	if cfg.Lock.Backend == "redis" || cfg.Ranking.RefreshChannel != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			baseLogger.WithError(err).Warn("Redis unreachable at startup, lock and ranking degraded")
		}
		cancel()
	}

	// Select the lock backend
	var lockManager lock.Manager
	if cfg.Lock.Backend == "redis" && redisClient != nil {
		lockManager = lock.NewRedisLock(redisClient, cfg.Lock.TTL)
		baseLogger.Info("Using Redis lock backend")
	} else {
		lockManager = lock.NewKeyedMutex()
		baseLogger.Info("Using in-process lock backend")
	}

	// Initialize services
	aiService := service.NewAIService(&service.AIServiceConfig{
		APIKey:           cfg.AI.APIKey,
		BaseURL:          cfg.AI.BaseURL,
		Models:           cfg.AI.Models,
		SummaryModel:     cfg.AI.SummaryModel,
		MaxRetries:       cfg.AI.MaxRetries,
		RetryBaseDelay:   cfg.AI.RetryBaseDelay,
		ShortFormTimeout: cfg.AI.ShortFormTimeout,
		LongFormTimeout:  cfg.AI.LongFormTimeout,
	})

	transcriptService := service.NewTranscriptService(&service.TranscriptConfig{
		BaseURL:  cfg.Transcript.BaseURL,
		Timeout:  cfg.Transcript.Timeout,
		Language: cfg.Transcript.Language,
	})
	// The fetcher interface must stay a true nil when fetching is
	// disabled, or the orchestrator's nil check never fires.
	var fetcher service.TranscriptFetcher
	if transcriptService != nil {
		fetcher = transcriptService
	} else {
		baseLogger.Info("Transcript backend not configured, caller transcripts only")
	}

	var notifier service.RankNotifier
	if redisClient != nil && cfg.Ranking.RefreshChannel != "" {
		notifier = rankcache.NewRedisNotifier(redisClient, cfg.Ranking.RefreshChannel, baseLogger)
	}

	analyzeService := service.NewAnalyzeService(
		lockManager,
		analysisRepo,
		videoRepo,
		creditRepo,
		fetcher,
		aiService,
		notifier,
		service.AnalyzeConfig{
			MinTranscriptChars: cfg.Pipeline.MinTranscriptChars,
			LockWaitTimeout:    cfg.Lock.WaitTimeout,
			RequestTimeout:     cfg.Pipeline.RequestTimeout,
		},
	)

	// Setup router
	router := api.SetupRouter(api.RouterDeps{
		AnalyzeService: analyzeService,
		AnalysisRepo:   analysisRepo,
		CreditRepo:     creditRepo,
		SettingRepo:    settingRepo,
		Logger:         baseLogger,
		CORS: middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
	}, cfg.Server.Mode)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		baseLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			baseLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	baseLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}

	baseLogger.Info("Server exited")
}
