package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/Atuoha/Ghost/internal/composer"
	"github.com/Atuoha/Ghost/internal/config"
	"github.com/Atuoha/Ghost/internal/infra/postgresql"
	"github.com/Atuoha/Ghost/internal/infra/postgresql/migrations"
	infraredis "github.com/Atuoha/Ghost/internal/infra/redis"
	"github.com/Atuoha/Ghost/internal/observability"
	"github.com/Atuoha/Ghost/internal/provider"
	"github.com/Atuoha/Ghost/internal/queue"
	"github.com/Atuoha/Ghost/internal/repository"
	"github.com/Atuoha/Ghost/internal/service"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	mailgun, err := provider.NewMailgunProvider(cfg.MailgunBaseURL, cfg.MailgunDomain, cfg.MailgunAPIKey, rateLimiter)
	if err != nil {
		logger.Fatal("mailgun provider initialization failed", zap.Error(err))
	}

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	consumer := queue.NewRabbitMQConsumer(rabbit, cfg.WorkerConcurrency, logger)
	defer consumer.Close()

	emailRepo := repository.NewGormEmailRepo(db)
	batchRepo := repository.NewGormEmailBatchRepo(db)
	postRepo := repository.NewGormPostRepo(db)
	memberRepo := repository.NewGormMemberRepo(db)

	metrics := observability.NewMetrics()

	dispatcher := service.NewBatchDispatcher(
		emailRepo, batchRepo, postRepo, memberRepo,
		composer.NewPostComposer(), mailgun,
		metrics, logger,
		cfg.EmailBatchSize, cfg.ErrorMaxLength,
	)

	worker := service.NewWorkerService(consumer, dispatcher, cfg.WorkerConcurrency, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("worker stopped", zap.Error(err))
	}

	logger.Info("worker shut down")
}
