// Package router assembles the gin engine: middleware chain, health probes,
// and the versioned payout API.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/payrail/payout-gateway/internal/infrastructure/config"
	"github.com/payrail/payout-gateway/internal/infrastructure/logger"
	"github.com/payrail/payout-gateway/internal/interfaces/http/handler"
	"github.com/payrail/payout-gateway/internal/interfaces/http/middleware"
)

// Handlers bundles the route handlers the router mounts
type Handlers struct {
	Payout *handler.PayoutHandler
	System *handler.SystemHandler
}

// New builds the gin engine with the full middleware chain. Probe routes sit
// outside the API group so auth and rate limiting never gate them.
func New(cfg *config.Config, log *zap.Logger, h Handlers) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsCfg))

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}

	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)

	api := engine.Group("/api/v1")
	if cfg.Auth.Enabled {
		api.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	}
	api.Use(middleware.Tenant())
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		api.Use(middleware.RateLimit(limiter))
	}

	api.GET("/system/info", h.System.GetSystemInfo)

	payouts := api.Group("/payouts")
	payouts.GET("", h.Payout.List)
	payouts.GET("/:id", h.Payout.Get)
	payouts.GET("/:id/transactions", h.Payout.ListTransactions)

	return engine
}
