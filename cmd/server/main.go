// Package main is the entry point for the retailops API server.
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

	"retailops/internal/app"
	"retailops/internal/domain/auth"
	"retailops/internal/domain/reports/revenue"
	"retailops/internal/infrastructure/cache"
	"retailops/internal/infrastructure/config"
	v1 "retailops/internal/infrastructure/http/v1"
	"retailops/internal/infrastructure/http/v1/handlers"
	"retailops/internal/infrastructure/storage/memory"
	"retailops/internal/infrastructure/storage/postgres"
	"retailops/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatalw("server failed", "error", err)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("starting retailops server", "env", cfg.App.Env)

	// --- Storage ---
	var (
		storage app.Storage
		pool    *postgres.Pool
		err     error
	)
	if cfg.UseMemoryStore() {
		log.Warn("database.url is empty, using the in-memory store; data is lost on restart")
		storage = app.NewMemoryStorage(memory.New())
	} else {
		poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
		poolCfg.AppName = cfg.App.Name
		poolCfg.MaxConns = cfg.Database.MaxConns
		poolCfg.MinConns = cfg.Database.MinConns

		pool, err = postgres.NewPool(ctx, poolCfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		storage, err = app.NewPostgresStorage(pool)
		if err != nil {
			return err
		}
		go logPoolStats(ctx, pool)
	}
	defer storage.Close()

	// --- Revenue cache ---
	checks := map[string]handlers.Pinger{storage.Name: pingFunc(storage.Ping)}
	var revenueCache revenue.Cache = cache.NewMemoryRevenueCache(cfg.Revenue.CacheTTL)
	if cfg.UseRedis() {
		redisCache, err := cache.NewRedisRevenueCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Revenue.CacheTTL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() { _ = redisCache.Close() }()
		revenueCache = redisCache
		checks["redis"] = redisCache
	} else if cfg.Revenue.CacheTTL == 0 {
		revenueCache = cache.NoopRevenueCache{}
	}

	// --- Services ---
	container := app.NewContainer(storage, app.Options{RevenueCache: revenueCache})
	jwtService := auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		AccessTokenTTL: cfg.JWT.AccessTokenTTL,
	})

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		JWT:          jwtService,
		DevTokens:    !cfg.IsProduction(),
		ReleaseMode:  cfg.IsProduction(),
		Products:     container.Products,
		Ledger:       container.Ledger,
		Packlists:    container.Packlists,
		Orders:       container.Orders,
		Revenue:      container.Revenue,
		Audit:        container.Audit,
		HealthChecks: checks,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infow("server starting", "addr", server.Addr, "storage", storage.Name, "redis", cfg.UseRedis())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func logPoolStats(ctx context.Context, pool *postgres.Pool) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			postgres.LogPoolStats(ctx, pool)
		}
	}
}
