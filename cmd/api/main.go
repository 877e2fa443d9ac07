package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Atuoha/Ghost/internal/composer"
	"github.com/Atuoha/Ghost/internal/config"
	"github.com/Atuoha/Ghost/internal/events"
	"github.com/Atuoha/Ghost/internal/handler"
	"github.com/Atuoha/Ghost/internal/infra/postgresql"
	"github.com/Atuoha/Ghost/internal/infra/postgresql/migrations"
	infraredis "github.com/Atuoha/Ghost/internal/infra/redis"
	"github.com/Atuoha/Ghost/internal/observability"
	"github.com/Atuoha/Ghost/internal/queue"
	"github.com/Atuoha/Ghost/internal/repository"
	"github.com/Atuoha/Ghost/internal/service"
	"github.com/Atuoha/Ghost/internal/transport"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
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

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	publisher := queue.NewRabbitMQPublisher(rabbit)
	defer publisher.Close()

	emailRepo := repository.NewGormEmailRepo(db)
	batchRepo := repository.NewGormEmailBatchRepo(db)
	postRepo := repository.NewGormPostRepo(db)
	memberRepo := repository.NewGormMemberRepo(db)

	bus := events.NewBus()
	emailService := service.NewEmailService(
		emailRepo, batchRepo, postRepo, memberRepo,
		composer.NewPostComposer(), bus, logger,
	)
	memberService := service.NewMemberService(memberRepo, logger)

	listener := service.NewTriggerListener(bus, publisher, logger)
	listener.Start()
	defer listener.Stop()

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	handler.RegisterHealthRoutes(app, map[string]handler.ReadinessCheck{
		"postgres": func(ctx context.Context) error { return sqlDB.PingContext(ctx) },
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})

	if err := handler.RegisterEmailRoutes(app, emailService); err != nil {
		logger.Fatal("failed to register email routes", zap.Error(err))
	}
	if err := handler.RegisterMemberRoutes(app, memberService); err != nil {
		logger.Fatal("failed to register member routes", zap.Error(err))
	}

	go func() {
		logger.Info("bulk email api started", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			logger.Fatal("api server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down api")
	if err := app.Shutdown(); err != nil {
		logger.Error("api shutdown failed", zap.Error(err))
	}
}
