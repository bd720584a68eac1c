package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/port"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/config"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/telemetry"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/transport/http/handlers"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/transport/http/middleware"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth         *usecase.AuthService
	Registration *usecase.RegistrationService
	Passwords    *usecase.PasswordService
	Tokens       *usecase.TokenService
	Sessions     port.SessionStore
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for the key-value store.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config    *config.AppConfig
	Logger    *zap.Logger
	Telemetry *telemetry.Provider
	Services  ServiceSet
	Database  DatabaseChecker
	Cache     CacheChecker
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Metrics(deps.Telemetry))
	r.Use(middleware.Platform())

	checks := make(map[string]handlers.Pinger, 2)
	if deps.Database != nil {
		checks["postgres"] = deps.Database.Ping
	}
	if deps.Cache != nil {
		checks["redis"] = deps.Cache.HealthCheck
	}
	healthHandler := handlers.NewHealthHandler(checks)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(
			deps.Config,
			deps.Services.Auth,
			deps.Services.Registration,
			deps.Services.Tokens,
		)
		authHandler.RegisterRoutes(api.Group("/auth"))

		passwordHandler := handlers.NewPasswordHandler(
			deps.Services.Passwords,
			deps.Services.Tokens,
			deps.Config.App.Env == "development",
		)
		passwordHandler.RegisterRoutes(api.Group("/password"))

		sessionHandler := handlers.NewSessionHandler(
			deps.Services.Auth,
			deps.Services.Tokens,
			deps.Services.Sessions,
			deps.Config.Session.CookieName,
		)
		sessionHandler.RegisterRoutes(api.Group("/sessions"))
	}

	return r
}
