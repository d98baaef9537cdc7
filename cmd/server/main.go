package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	apppayout "github.com/payrail/payout-gateway/internal/application/payout"
	"github.com/payrail/payout-gateway/internal/infrastructure/cache"
	"github.com/payrail/payout-gateway/internal/infrastructure/config"
	"github.com/payrail/payout-gateway/internal/infrastructure/logger"
	"github.com/payrail/payout-gateway/internal/infrastructure/telemetry"
	"github.com/payrail/payout-gateway/internal/infrastructure/upstream"
	"github.com/payrail/payout-gateway/internal/interfaces/http/handler"
	"github.com/payrail/payout-gateway/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Payout Gateway",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize telemetry
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Select the cache backend
	store, err := buildCacheStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize cache", zap.Error(err))
	}
	log.Info("Cache initialized", zap.String("backend", cfg.Cache.Backend))

	// Upstream client and application services
	client := upstream.NewStripeClient(cfg.Stripe.APIKey, cfg.Stripe.Timeout, log)
	queryService := apppayout.NewQueryService(client, store, cfg.Cache.TTL, cfg.Tenancy.AllowUnattributed, log)
	resolutionService := apppayout.NewResolutionService(client, cfg.Tenancy.AllowUnattributed, log)

	engine := router.New(cfg, log, router.Handlers{
		Payout: handler.NewPayoutHandler(queryService, resolutionService, log),
		System: handler.NewSystemHandler(),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// buildCacheStore selects the configured cache backend. The memory backend
// is per-process; redis shares entries across replicas.
func buildCacheStore(cfg *config.Config, log *zap.Logger) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
			cache.WithStaleRetention(cfg.Cache.StaleRetention),
			cache.WithRedisLogger(log))
	default:
		return cache.NewMemoryStore(
			cache.WithMaxEntries(cfg.Cache.MaxEntries),
			cache.WithMemoryLogger(log),
		), nil
	}
}
