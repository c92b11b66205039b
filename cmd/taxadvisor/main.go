package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/spassessoria/tax-advisor-go/internal/config"
	"github.com/spassessoria/tax-advisor-go/internal/handler"
	"github.com/spassessoria/tax-advisor-go/internal/infra/cache"
	"github.com/spassessoria/tax-advisor-go/internal/infra/client"
	"github.com/spassessoria/tax-advisor-go/internal/infra/genai"
	"github.com/spassessoria/tax-advisor-go/internal/infra/observability"
	"github.com/spassessoria/tax-advisor-go/internal/infra/resilience"
	"github.com/spassessoria/tax-advisor-go/internal/infra/storage"
	"github.com/spassessoria/tax-advisor-go/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("gemini_model", cfg.GeminiModel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("storage_path", cfg.StoragePath),
	)

	if cfg.GeminiAPIKey == "" {
		logger.Fatal("GEMINI_API_KEY is required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "tax-advisor")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	registryCache := cache.New[string](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	registryCB := resilience.NewCircuitBreaker("public-registries")
	engineCB := resilience.NewCircuitBreaker("reasoning-engine")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	cnaeClient := client.NewCnaeClient(httpClient, cfg.CnaeAPIURL, registryCB, resilienceCfg)
	cnpjClient := client.NewCnpjClient(httpClient, cfg.CnpjAPIURL, registryCB, resilienceCfg)

	engine, err := genai.NewEngine(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, engineCB, resilienceCfg, cfg.MaxConcurrency)
	if err != nil {
		logger.Fatal("failed to init reasoning engine", zap.Error(err))
	}

	// --- Services ---
	advisorSvc := service.NewAdvisor(engine, metrics, logger)
	lookupSvc := service.NewLookup(cnaeClient, cnpjClient, registryCache, metrics, logger)
	formSvc := service.NewFormService()

	// --- Persistence ---
	store := storage.NewFileStore(cfg.StoragePath, logger)

	// --- Router ---
	router := handler.NewRouter(advisorSvc, lookupSvc, formSvc, store, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
