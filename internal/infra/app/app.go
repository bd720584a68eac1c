package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/port"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/config"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/database"
	kafkainfra "github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/kafka"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/logger"
	redisinfra "github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/redis"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/security"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/telemetry"
	postgresrepo "github.com/horuscamacho/noticias-pachuca-sub004/internal/repository/postgres"
	redisrepo "github.com/horuscamacho/noticias-pachuca-sub004/internal/repository/redis"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/transport/http/routes"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/usecase"
)

// Application owns the process-level resources: the HTTP engine and the
// connections it serves from.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

// New wires configuration, stores, services, and transport into a runnable
// application.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	provider, err := telemetry.Attach(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	blacklist := redisrepo.NewBlacklistRepository(redisClient.Client(), cfg.Redis.KeyPrefix)
	refreshTokens := redisrepo.NewRefreshTokenRepository(
		redisClient.Client(),
		cfg.Redis.KeyPrefix,
		cfg.JWT.RefreshTokenTTL,
		cfg.Limits.MaxRefreshTokensPerUser,
		log,
	)
	resetTokens := redisrepo.NewResetTokenRepository(redisClient.Client(), cfg.Redis.KeyPrefix)
	sessions := redisrepo.NewSessionRepository(
		redisClient.Client(),
		cfg.Redis.KeyPrefix,
		cfg.Limits.MaxSessionsPerUser,
		log,
	)

	users := postgresrepo.NewUserRepository(pool)

	hasher := security.NewArgon2Hasher(security.Argon2Params{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	validator := security.DefaultPasswordValidator()

	var publisher port.EventPublisher
	var producer *kafkainfra.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			publisher = kafkainfra.NewStubPublisher(log)
		} else {
			publisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		publisher = kafkainfra.NewStubPublisher(log)
	}

	tokenService := usecase.NewTokenService(cfg, blacklist, refreshTokens, resetTokens, log)
	tokenService.WithTelemetry(provider)
	rotationService := usecase.NewRotationService(tokenService, refreshTokens, users, log)
	rotationService.WithTelemetry(provider)
	authService := usecase.NewAuthService(cfg, users, tokenService, rotationService, refreshTokens, sessions, hasher, publisher, log)
	registrationService := usecase.NewRegistrationService(cfg, users, tokenService, validator, hasher, publisher, log)
	passwordService := usecase.NewPasswordService(cfg, users, tokenService, refreshTokens, sessions, validator, hasher, publisher, log)

	engine := routes.Register(routes.Dependencies{
		Config:    cfg,
		Logger:    log,
		Telemetry: provider,
		Database:  pool,
		Cache:     redisClient,
		Services: routes.ServiceSet{
			Auth:         authService,
			Registration: registrationService,
			Passwords:    passwordService,
			Tokens:       tokenService,
			Sessions:     sessions,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
