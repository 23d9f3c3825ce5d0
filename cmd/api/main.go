package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-progress-api/internal/config"
	"github.com/noah-isme/gema-progress-api/internal/database"
	"github.com/noah-isme/gema-progress-api/internal/events"
	"github.com/noah-isme/gema-progress-api/internal/grading"
	"github.com/noah-isme/gema-progress-api/internal/handler"
	"github.com/noah-isme/gema-progress-api/internal/middleware"
	"github.com/noah-isme/gema-progress-api/internal/repository"
	"github.com/noah-isme/gema-progress-api/internal/router"
	"github.com/noah-isme/gema-progress-api/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL, database.PoolOptions{
		MaxOpen:     cfg.DatabaseMaxOpen,
		MaxIdle:     cfg.DatabaseMaxIdle,
		MaxLifetime: cfg.DatabaseConnLife,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if cfg.DatabaseMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	checks := map[string]handler.HealthCheckFunc{
		"database": pingDatabase(db),
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer cache.Close()
		checks["redis"] = func(ctx context.Context) error {
			return cache.Ping(ctx).Err()
		}
	} else {
		logger.Warn().Msg("redis url not set, status cache disabled")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer conn.Drain()
		publisher = events.NewNATSPublisher(conn, cfg.NATSSubject)
		checks["nats"] = func(context.Context) error {
			if status := conn.Status(); status != nats.CONNECTED {
				return errors.New("nats connection " + status.String())
			}
			return nil
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	targetRepo := repository.NewTargetRepository(db)
	learnerRepo := repository.NewLearnerRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	targetService := service.NewTargetService(targetRepo, courseRepo, validate, activityService, logger)
	statusService := service.NewStatusService(targetRepo, learnerRepo, courseRepo, submissionRepo, cache, cfg.StatusCacheTTL, logger)
	submissionService := service.NewSubmissionService(submissionRepo, targetRepo, learnerRepo, courseRepo, statusService, validate, logger)
	gradingService := service.NewGradingService(submissionRepo, targetRepo, courseRepo, validate, activityService, publisher, grading.Scale{
		MaxGrade:  cfg.DefaultMaxGrade,
		PassGrade: cfg.DefaultPassGrade,
	}, logger)
	feedbackService := service.NewFeedbackService(feedbackRepo, submissionRepo, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSOrigins})
	router.Register(app, cfg, router.Dependencies{
		TargetHandler:     handler.NewTargetHandler(targetService, logger),
		StatusHandler:     handler.NewStatusHandler(statusService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		GradingHandler:    handler.NewGradingHandler(gradingService, logger),
		FeedbackHandler:   handler.NewFeedbackHandler(feedbackService, logger),
		ActivityHandler:   handler.NewAdminActivityHandler(activityService, logger),
		HealthChecks:      checks,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func pingDatabase(db *gorm.DB) handler.HealthCheckFunc {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
