package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/tenmoapp/tenmo/internal/api/handler"
	"github.com/tenmoapp/tenmo/internal/api/middleware"
	"github.com/tenmoapp/tenmo/internal/api/spec"
	"github.com/tenmoapp/tenmo/internal/config"
	"github.com/tenmoapp/tenmo/internal/idempotency"
	"github.com/tenmoapp/tenmo/internal/service"
	"github.com/tenmoapp/tenmo/internal/store"
)

// Router wires handlers, middleware, and services into the HTTP surface.
type Router struct {
	cfg         *config.Config
	logger      *zap.Logger
	db          *pgxpool.Pool
	redis       redis.Cmdable
	idemStore   *idempotency.Store
	authSvc     *service.AuthService
	accountSvc  *service.AccountService
	transferSvc *service.TransferService
	users       store.UserStore
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *pgxpool.Pool,
	redisClient redis.Cmdable,
	idemStore *idempotency.Store,
	authSvc *service.AuthService,
	accountSvc *service.AccountService,
	transferSvc *service.TransferService,
	users store.UserStore,
) *Router {
	return &Router{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		redis:       redisClient,
		idemStore:   idemStore,
		authSvc:     authSvc,
		accountSvc:  accountSvc,
		transferSvc: transferSvc,
		users:       users,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	authHandler := handler.NewAuthHandler(api.authSvc)
	userHandler := handler.NewUserHandler(api.users)
	accountHandler := handler.NewAccountHandler(api.accountSvc)
	transferHandler := handler.NewTransferHandler(api.transferSvc)
	healthHandler := handler.NewHealthHandler(api.db, api.redis)

	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/v1/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/v1/docs/*", httpSwagger.Handler(httpSwagger.URL("/v1/openapi.yaml")))

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
		r.Post("/v1/auth/register", authHandler.Register)
		r.Post("/v1/auth/login", authHandler.Login)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Get("/v1/users", userHandler.ListUsers)
		r.Get("/v1/account/balance", accountHandler.GetBalance)

		r.Get("/v1/transfers", transferHandler.ListTransfers)
		r.Get("/v1/transfers/pending", transferHandler.ListPending)
		r.Get("/v1/transfers/{id}", transferHandler.GetTransfer)
		r.With(middleware.IdempotencyMiddleware(api.idemStore, api.logger)).
			Post("/v1/transfers/send", transferHandler.Send)
		r.Post("/v1/transfers/request", transferHandler.Request)
		r.Put("/v1/transfers/{id}/status", transferHandler.Resolve)
	})

	return r
}
