package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/masomo/caisse/internal/adapter/http"
	"github.com/masomo/caisse/internal/adapter/http/handler"
	"github.com/masomo/caisse/internal/adapter/http/middleware"
	postgresRepo "github.com/masomo/caisse/internal/adapter/repository/postgres"
	redisRepo "github.com/masomo/caisse/internal/adapter/repository/redis"
	"github.com/masomo/caisse/internal/adapter/storage/s3"
	"github.com/masomo/caisse/internal/infrastructure/auth"
	"github.com/masomo/caisse/internal/infrastructure/config"
	"github.com/masomo/caisse/internal/infrastructure/eventpublisher"
	"github.com/masomo/caisse/internal/infrastructure/logger"
	"github.com/masomo/caisse/internal/infrastructure/logging"
	"github.com/masomo/caisse/internal/infrastructure/postgres"
	"github.com/masomo/caisse/internal/infrastructure/redis"
	"github.com/masomo/caisse/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup loggers. zerolog carries the request-scoped logs, slog the
	// background workers.
	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat).Logger)

	ctx := context.Background()

	// Run migrations before opening the pool
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Connect to voucher object storage
	voucherStore, err := s3.NewVoucherStore(ctx, s3.Config{
		Endpoint:     cfg.S3Endpoint,
		Region:       cfg.S3Region,
		Bucket:       cfg.S3Bucket,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		UsePathStyle: cfg.S3UsePathStyle,
		UseSSL:       cfg.S3UseSSL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create voucher store")
	}
	if err := voucherStore.EnsureBucket(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure voucher bucket")
	}
	log.Info().Str("bucket", cfg.S3Bucket).Msg("connected to voucher storage")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	movementRepo := postgresRepo.NewMovementRepository(pool)
	currencyRepo := postgresRepo.NewCurrencyRepository(pool)
	expenseRepo := postgresRepo.NewExpenseRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	cache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Initialize use cases
	ledgerUC := usecase.NewLedgerUseCase(txManager, movementRepo, currencyRepo, outboxRepo, idGen, cache)
	paymentUC := usecase.NewPaymentUseCase(ledgerUC, log.Logger)
	expenseUC := usecase.NewExpenseUseCase(txManager, expenseRepo, ledgerUC, outboxRepo, idGen, log.Logger)
	balanceUC := usecase.NewBalanceUseCase(movementRepo, currencyRepo, cache)
	currencyUC := usecase.NewCurrencyUseCase(currencyRepo)
	voucherUC := usecase.NewVoucherUseCase(movementRepo, voucherStore)
	backfillUC := usecase.NewBackfillUseCase(txManager, movementRepo, outboxRepo, voucherStore, idGen, log.Logger)

	// Initialize handlers
	movementHandler := handler.NewMovementHandler(ledgerUC, voucherUC)
	settlementHandler := handler.NewSettlementHandler(paymentUC, expenseUC)
	expenseHandler := handler.NewExpenseHandler(expenseUC)
	balanceHandler := handler.NewBalanceHandler(balanceUC)
	backfillHandler := handler.NewBackfillHandler(backfillUC)
	currencyHandler := handler.NewCurrencyHandler(currencyUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient, voucherStore)

	// JWT verification is optional; without a secret the service trusts
	// the gateway's X-Tenant-ID header.
	var jwtManager *auth.JWTManager
	if cfg.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		MovementHandler:   movementHandler,
		SettlementHandler: settlementHandler,
		ExpenseHandler:    expenseHandler,
		BalanceHandler:    balanceHandler,
		BackfillHandler:   backfillHandler,
		CurrencyHandler:   currencyHandler,
		HealthHandler:     healthHandler,
		IdempotencyStore:  idempotencyStore,
		RateLimiter:       middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		JWTManager:        jwtManager,
		Logger:            log.Logger,
	})

	// Start the outbox publisher
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(slog.Default()),
		Retrier:    postgresRepo.NewRetrier(),
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := publisher.Start(publisherCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopPublisher()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
