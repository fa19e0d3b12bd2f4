package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"aiindex-backend/internal/config"
	"aiindex-backend/internal/database"
	"aiindex-backend/internal/handlers"
	"aiindex-backend/internal/logger"
	"aiindex-backend/internal/metrics"
	"aiindex-backend/internal/middleware"
	"aiindex-backend/internal/router"
	"aiindex-backend/internal/services"
	"aiindex-backend/internal/websocket"
	"aiindex-backend/internal/worker"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	zlog, err := logger.New(cfg.Debug)
	if err != nil {
		log.Fatalf("✗ Logger initialization failed: %v", err)
	}
	defer zlog.Sync()

	zlog.Info("🚀 Starting Practical AI Index Backend...")
	zlog.Info("✓ Environment variables loaded", zap.String("env", cfg.Env), zap.Bool("debug", cfg.Debug))

	// ──── Step 2: Model Catalog + Metrics ────
	catalog, err := services.NewFreeModelCatalog()
	if err != nil {
		zlog.Fatal("✗ Free model catalog failed to load", zap.Error(err))
	}
	m := metrics.New(knownModels(catalog, cfg.OpenRouterModel)...)

	// ──── Step 3: Initialize OpenRouter Client ────
	// Absent credentials leave the client nil; upstream routes then answer
	// 500 "not configured" without network I/O.
	var (
		completer     services.Completer
		modelsHandler *handlers.ModelsHandler
	)
	openrouter, err := services.NewOpenRouterService(services.OpenRouterConfig{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.OpenRouterAPIURL,
		AppName: cfg.OpenRouterAppName,
		AppURL:  cfg.OpenRouterAppURL,
		Timeout: cfg.OpenRouterTimeout,
	}, m, zlog.Named("openrouter"))
	if err != nil {
		zlog.Warn("OpenRouter client not initialized", zap.Error(err))
		modelsHandler = handlers.NewModelsHandler(catalog, nil)
	} else {
		completer = openrouter
		modelsHandler = handlers.NewModelsHandler(catalog, openrouter)
		zlog.Info("✓ OpenRouter client initialized",
			zap.String("api_url", cfg.OpenRouterAPIURL),
			zap.String("default_model", cfg.OpenRouterModel),
			zap.Duration("timeout", cfg.OpenRouterTimeout))
	}

	// ──── Step 4: Rate Limiting ────
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		var store middleware.LimitStore
		if cfg.RedisURL != "" {
			redisClient, err := database.NewRedisClient(cfg.RedisURL)
			if err != nil {
				zlog.Fatal("✗ Redis connection failed", zap.Error(err))
			}
			defer redisClient.Close()
			store = middleware.NewRedisStore(redisClient, cfg.RateLimitPerMinute, time.Minute)
			zlog.Info("✓ Redis connected (shared rate limits)")
		} else {
			memStore := middleware.NewMemoryStore(cfg.RateLimitPerMinute, time.Minute)
			defer memStore.Close()
			store = memStore
		}
		rateLimiter = middleware.NewRateLimiter(store, zlog)
		zlog.Info("✓ Rate limiting enabled", zap.Int("per_minute", cfg.RateLimitPerMinute))
	}

	// ──── Step 5: Initialize Handlers ────
	pool := worker.NewPool(cfg.CompareConcurrency)
	compareService := services.NewCompareService(completer, pool, cfg.OpenRouterTimeout)

	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	if jwtAuth.Enabled() {
		zlog.Info("✓ Gateway JWT auth enabled")
	}

	r := router.New(router.Deps{
		Log:            zlog,
		JWTAuth:        jwtAuth,
		RateLimiter:    rateLimiter,
		HealthHandler:  handlers.NewHealthHandler(cfg),
		ChatHandler:    handlers.NewChatHandler(completer, cfg.OpenRouterModel),
		CompareHandler: handlers.NewCompareHandler(compareService, websocket.NewUpgrader(cfg.CORSOrigins), zlog),
		ModelsHandler:  modelsHandler,
		Metrics:        m.Handler(),
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxy:   cfg.TrustedProxy,
	})

	// ──── Step 6: Start HTTP Server ────
	// WriteTimeout covers one upstream call; /compare extends its own deadline
	// from the number of models requested.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.OpenRouterTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		zlog.Info("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	zlog.Info(fmt.Sprintf("✓ Backend ready on http://localhost:%s", cfg.Port),
		zap.Int("compare_concurrency", pool.Size()),
		zap.Strings("cors_origins", cfg.CORSOrigins))

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		zlog.Fatal("Server error", zap.Error(err))
	}
}

// knownModels are the ids that get their own metrics label.
func knownModels(catalog *services.FreeModelCatalog, defaultModel string) []string {
	ids := []string{defaultModel}
	ids = append(ids, services.DefaultCompareModels...)
	for _, fm := range catalog.Models() {
		ids = append(ids, fm.ID)
	}
	return ids
}
