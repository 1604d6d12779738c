// Package router wires handlers and middleware into the gin engine.
package router

import (
	"time"

	"github.com/devfolio/portfolio-backend/config"
	"github.com/devfolio/portfolio-backend/handlers"
	"github.com/devfolio/portfolio-backend/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies holds everything SetupRouter needs.
type Dependencies struct {
	Config         *config.Config
	ContactHandler *handlers.ContactHandler
	HealthHandler  *handlers.HealthHandler
	RedisClient    *redis.Client
	// Registerer receives HTTP metrics; Gatherer backs /metrics. Both
	// default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Logger     *zap.SugaredLogger
}

// SetupRouter configures and returns the gin engine with all routes defined.
func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if err := r.SetTrustedProxies(deps.Config.Server.TrustedProxies); err != nil {
		return nil, err
	}

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.MetricsMiddleware(deps.Registerer))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(&deps.Config.Server))
	r.Use(middleware.SecurityHeadersMiddleware(deps.Config))

	r.GET("/health", deps.HealthHandler.DetailedHealth)
	r.GET("/health/liveness", deps.HealthHandler.LivenessCheck)
	r.GET("/health/readiness", deps.HealthHandler.ReadinessCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		window := time.Duration(deps.Config.RateLimit.WindowSeconds) * time.Second
		api.POST("/sendEmail",
			middleware.ContactRateLimiter(deps.RedisClient, deps.Config.RateLimit.ContactRequests, window),
			deps.ContactHandler.SendEmail)
	}

	if deps.Logger != nil {
		deps.Logger.Infow("Router configured", "routes", len(r.Routes()))
	}
	return r, nil
}
