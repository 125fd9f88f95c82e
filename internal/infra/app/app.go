// Package app wires configuration, infrastructure, repositories, usecases
// and the HTTP transport into a runnable service.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/TheVish04/CAprep/internal/core/port"
	"github.com/TheVish04/CAprep/internal/infra/ai"
	cacheinfra "github.com/TheVish04/CAprep/internal/infra/cache"
	"github.com/TheVish04/CAprep/internal/infra/config"
	"github.com/TheVish04/CAprep/internal/infra/database"
	"github.com/TheVish04/CAprep/internal/infra/email"
	kafkainfra "github.com/TheVish04/CAprep/internal/infra/kafka"
	"github.com/TheVish04/CAprep/internal/infra/logger"
	redisinfra "github.com/TheVish04/CAprep/internal/infra/redis"
	"github.com/TheVish04/CAprep/internal/infra/security"
	"github.com/TheVish04/CAprep/internal/infra/storage"
	memoryrepo "github.com/TheVish04/CAprep/internal/repository/memory"
	postgresrepo "github.com/TheVish04/CAprep/internal/repository/postgres"
	redisrepo "github.com/TheVish04/CAprep/internal/repository/redis"
	"github.com/TheVish04/CAprep/internal/transport/http/handlers"
	"github.com/TheVish04/CAprep/internal/transport/http/routes"
	"github.com/TheVish04/CAprep/internal/usecase"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *goredis.Client
	cache    *cacheinfra.Memory
	verified *memoryrepo.VerifiedEmailStore
	otpCodes *memoryrepo.OTPStore
	attempts *memoryrepo.LoginAttemptStore
	rates    *memoryrepo.RateLimitStore
	events   port.EventPublisher
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	responseCache := cacheinfra.NewMemory(cfg.Cache.SweepInterval, cacheinfra.NewMetrics(registry))

	verifiedStore, err := memoryrepo.NewVerifiedEmailStore(
		cfg.OTP.VerifiedMarksFile, cfg.OTP.VerifiedMarkTTL, cfg.OTP.SweepInterval, log,
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init verified email store: %w", err)
	}

	// The rate limit store backs both the OTP issue quota and the per-IP
	// middleware. Redis keeps the counters shared across replicas; without
	// it each replica counts on its own.
	var redisClient *goredis.Client
	var rateLimits port.RateLimitStore
	var memoryRates *memoryrepo.RateLimitStore
	if cfg.Redis.Enabled() {
		redisClient, err = redisinfra.NewClient(ctx, cfg.Redis)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		rateLimits = redisrepo.NewRateLimitStore(redisClient)
		log.Info("rate limit counters backed by redis", zap.String("host", cfg.Redis.Host))
	} else {
		memoryRates = memoryrepo.NewRateLimitStore(cfg.OTP.SweepInterval)
		rateLimits = memoryRates
		log.Info("redis not configured, rate limit counters kept in process memory")
	}

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkainfra.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = producer
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	var objectStorage port.ObjectStorage
	if cfg.Storage.Enabled() {
		store, err := storage.NewMinioStore(ctx, cfg.Storage)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		objectStorage = store
	} else {
		log.Info("object storage not configured, resource uploads disabled")
	}

	issuer := security.NewTokenIssuer(
		cfg.JWT.Secret, cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL,
	)
	validator := security.NewPasswordValidator()
	sender := email.NewSendGridSender(cfg.Email, log)

	users := postgresrepo.NewUserRepository(pool)
	questions := postgresrepo.NewQuestionRepository(pool)
	resources := postgresrepo.NewResourceRepository(pool)
	announcements := postgresrepo.NewAnnouncementRepository(pool)
	notifications := postgresrepo.NewNotificationRepository(pool)
	contacts := postgresrepo.NewContactRepository(pool)
	audit := postgresrepo.NewAuditRepository(pool)

	otpCodes := memoryrepo.NewOTPStore(cfg.OTP.SweepInterval)
	loginAttempts := memoryrepo.NewLoginAttemptStore(cfg.Lockout.Window, cfg.OTP.SweepInterval)

	otpService := usecase.NewOTPService(otpCodes, rateLimits, verifiedStore, sender, cfg.OTP, log)
	registrationService := usecase.NewRegistrationService(users, verifiedStore, validator, issuer, eventPublisher, log)
	authService := usecase.NewAuthService(users, loginAttempts, issuer, cfg.Lockout, log)
	resetService := usecase.NewPasswordResetService(users, otpService, validator, eventPublisher, log)
	questionService := usecase.NewQuestionService(questions, responseCache, log)
	resourceService := usecase.NewResourceService(resources, objectStorage, responseCache, cfg.Storage.URLExpiry, log)
	announcementService := usecase.NewAnnouncementService(announcements, notifications, users, responseCache, eventPublisher, log)
	notificationService := usecase.NewNotificationService(notifications, responseCache, log)
	contactService := usecase.NewContactService(contacts, sender, cfg.Email.FromEmail, log)
	quizService := usecase.NewQuizService(ai.NewGeminiClient(cfg.AI), log)
	userService := usecase.NewUserService(users, responseCache, log)
	adminService := usecase.NewAdminService(users, questions, resources, notifications, audit, responseCache, log)

	healthDeps := map[string]handlers.Pinger{"postgres": pool}
	if redisClient != nil {
		healthDeps["redis"] = redisPinger{client: redisClient}
	}

	engine := routes.New(routes.Handlers{
		Auth:          handlers.NewAuthHandler(otpService, registrationService, authService, resetService),
		Questions:     handlers.NewQuestionHandler(questionService, userService),
		Resources:     handlers.NewResourceHandler(resourceService, userService),
		Announcements: handlers.NewAnnouncementHandler(announcementService),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Contact:       handlers.NewContactHandler(contactService),
		Quiz:          handlers.NewQuizHandler(quizService),
		Admin:         handlers.NewAdminHandler(adminService, contactService),
		Health:        handlers.NewHealthHandler(Version, healthDeps),
	}, routes.Deps{
		Config:     cfg,
		Logger:     log,
		Issuer:     issuer,
		Cache:      responseCache,
		RateLimits: rateLimits,
		Registry:   registry,
		Audit:      adminService,
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		cache:    responseCache,
		verified: verifiedStore,
		otpCodes: otpCodes,
		attempts: loginAttempts,
		rates:    memoryRates,
		events:   eventPublisher,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down in order: stop
// accepting requests, flush the event publisher, close the stores.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.pool.Close()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		_ = a.events.Close()
	}()
	defer a.verified.Close()
	defer a.otpCodes.Close()
	defer a.attempts.Close()
	defer func() {
		if a.rates != nil {
			a.rates.Close()
		}
	}()
	defer a.cache.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting CAprep API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
		zap.String("version", Version),
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

type redisPinger struct {
	client *goredis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
