package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tenmoapp/tenmo/internal/api"
	"github.com/tenmoapp/tenmo/internal/api/middleware"
	"github.com/tenmoapp/tenmo/internal/config"
	"github.com/tenmoapp/tenmo/internal/idempotency"
	"github.com/tenmoapp/tenmo/internal/observability"
	"github.com/tenmoapp/tenmo/internal/service"
	"github.com/tenmoapp/tenmo/internal/store"
	"github.com/tenmoapp/tenmo/internal/store/memory"
	"github.com/tenmoapp/tenmo/internal/store/postgres"
	"github.com/tenmoapp/tenmo/internal/worker"
)

// Run bootstraps the HTTP server and reconciliation worker, blocking until
// shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		users     store.UserStore
		accounts  store.AccountStore
		transfers store.TransferStore
		pool      *pgxpool.Pool
		idemStore *idempotency.Store
	)
	var redisClient redis.Cmdable

	switch cfg.StoreDriver {
	case config.StoreMemory:
		mem := memory.New()
		users, accounts, transfers = mem, mem, mem
		logger.Info("using in-memory store; state is lost on restart")
	case config.StorePostgres:
		pool, err = postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}

		pg := postgres.New(pool)
		users, accounts, transfers = pg, pg, pg

		if cfg.RedisURL != "" {
			client, err := newRedisClient(cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			defer client.Close()
			redisClient = client
		}
		idemStore = idempotency.NewStore(redisClient, pool, cfg.IdempotencyTTL)
	}

	accountSvc := service.NewAccountService(accounts)
	authSvc := service.NewAuthService(users, accountSvc, cfg.StartingBalance)
	transferSvc := service.NewTransferService(accounts, transfers)
	reconcileSvc := service.NewReconciliationService(accounts)

	reconcileWorker := worker.NewReconciliationWorker(reconcileSvc).WithInterval(cfg.ReconcileInterval)
	stopWorker := reconcileWorker.Run(ctx)
	logger.Info("reconciliation worker started", zap.Duration("interval", cfg.ReconcileInterval))

	router := api.NewRouter(cfg, logger, pool, redisClient, idemStore, authSvc, accountSvc, transferSvc, users)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping reconciliation worker")
	stopWorker()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
