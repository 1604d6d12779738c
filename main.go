package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devfolio/portfolio-backend/config"
	"github.com/devfolio/portfolio-backend/db"
	"github.com/devfolio/portfolio-backend/handlers"
	"github.com/devfolio/portfolio-backend/logger"
	"github.com/devfolio/portfolio-backend/router"
	"github.com/devfolio/portfolio-backend/services"
	"github.com/devfolio/portfolio-backend/store"
	"github.com/devfolio/portfolio-backend/store/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger.InitLogger()
	log := logger.GetLogger()
	defer logger.Close()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisOptions := &redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	if cfg.Redis.UseTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOptions)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		// The rate limiter fails open, so a missing Redis is not fatal.
		log.Warnw("Redis unavailable at startup", "address", cfg.Redis.Address, "error", err)
	}

	var (
		pool    *pgxpool.Pool
		archive store.ContactStore
		workers *services.WorkerPool
	)
	if cfg.Database.Enabled {
		pool, err = db.NewPool(ctx, &cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		if err := db.RunMigrations(cfg.Database.URL()); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		archive = postgres.NewContactStore(pool)
		workers = services.NewWorkerPool(cfg.WorkerPool)
		workers.Start()
	}

	emailService := services.NewEmailService(&cfg.Email)

	var healthService *services.HealthService
	if pool != nil {
		healthService = services.NewHealthService(pool, redisClient, cfg.Server.Version)
		healthService.SetQueueMonitor(workers, cfg.WorkerPool.QueueSize)
	} else {
		healthService = services.NewHealthService(nil, redisClient, cfg.Server.Version)
	}

	var jobs handlers.JobSubmitter
	if workers != nil {
		jobs = workers
	}

	r, err := router.SetupRouter(router.Dependencies{
		Config:         cfg,
		ContactHandler: handlers.NewContactHandler(emailService, archive, jobs),
		HealthHandler:  handlers.NewHealthHandler(healthService),
		RedisClient:    redisClient,
		Logger:         log,
	})
	if err != nil {
		log.Fatalf("Failed to set up router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Infow("Starting server", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown failed", "error", err)
	}

	if workers != nil {
		poolCtx, poolCancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.WorkerPool.ShutdownTimeoutSeconds)*time.Second)
		defer poolCancel()
		if err := workers.Shutdown(poolCtx); err != nil {
			log.Errorw("Worker pool shutdown failed", "error", err)
		}
	}

	log.Info("Server exited")
}
