package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/techcollege/referral-service/internal/api/http"
	"github.com/techcollege/referral-service/internal/api/http/handlers"
	"github.com/techcollege/referral-service/internal/auth"
	"github.com/techcollege/referral-service/internal/config"
	"github.com/techcollege/referral-service/internal/events"
	"github.com/techcollege/referral-service/internal/notify"
	"github.com/techcollege/referral-service/internal/observability"
	"github.com/techcollege/referral-service/internal/persistence"
	"github.com/techcollege/referral-service/internal/repository"
	"github.com/techcollege/referral-service/internal/service"
	"github.com/techcollege/referral-service/internal/worker"
	"github.com/techcollege/referral-service/internal/workflow"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var (
		staffRepo    repository.StaffRepository
		traineeRepo  repository.TraineeRepository
		referralRepo repository.ReferralRepository
	)
	if pg.Enabled() {
		pool := pg.PoolHandle()
		staffRepo = repository.NewStaffRepository(pool)
		traineeRepo = repository.NewTraineeRepository(pool)
		referralRepo = repository.NewReferralRepository(pool)
	} else {
		staffRepo = repository.NewMemoryStaffRepository()
		traineeRepo = repository.NewMemoryTraineeRepository()
		referralRepo = repository.NewMemoryReferralRepository()
	}

	var feed events.ChangeFeed
	if redis.Enabled() {
		feed = events.NewRedisFeed(redis.Client, logger)
	} else {
		feed = events.NewMemoryFeed()
	}

	metrics := observability.NewMetrics()
	bus := events.NewInMemoryDispatcher(logger)
	engine := workflow.NewEngine(workflow.WithRequireComments(cfg.Workflow.RequireComments))

	dispatcher := notify.NewDispatcher(buildGateways(cfg.Notification, logger, metrics))
	notificationWorker := worker.NewNotificationWorker(
		service.NewNotificationService(bus, staffRepo, dispatcher, logger),
		dispatcher,
		logger,
	)
	notificationWorker.Start()

	referralService := service.NewReferralService(service.ReferralDependencies{
		ReferralRepo: referralRepo,
		TraineeRepo:  traineeRepo,
		Engine:       engine,
		Dispatcher:   bus,
		Feed:         feed,
		Metrics:      metrics,
		Logger:       logger,
	})
	staffService := service.NewStaffService(*cfg, service.StaffDependencies{
		StaffRepo:    staffRepo,
		ReferralRepo: referralRepo,
		Dispatcher:   bus,
		Feed:         feed,
		Logger:       logger,
	})
	authService := service.NewAuthService(*cfg, staffRepo)
	traineeService := service.NewTraineeService(traineeRepo)

	if _, err := staffService.EnsureBootstrap(ctx); err != nil {
		logger.Fatal("failed to bootstrap staff directory", zap.Error(err))
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), staffRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, staffService),
		Staff:          handlers.NewStaffHandler(staffService),
		Trainees:       handlers.NewTraineesHandler(traineeService),
		Referrals:      handlers.NewReferralsHandler(referralService),
		Stream:         handlers.NewStreamHandler(feed, referralService, logger, 0),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = feed.Close()
	_ = app.ShutdownWithTimeout(shutdownGrace)

	drainCtx, drainCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer drainCancel()
	if err := notificationWorker.Stop(drainCtx); err != nil {
		logger.Warn("pending notifications dropped", zap.Error(err))
	}
}

// buildGateways picks Telegram when a bot token is set and the webhook as
// fallback, or the webhook alone. With neither, deliveries are only logged.
func buildGateways(cfg config.NotificationConfig, logger *zap.Logger, metrics *observability.Metrics) notify.DispatcherConfig {
	out := notify.DispatcherConfig{
		Timeout: cfg.Timeout(),
		Logger:  logger,
		Metrics: metrics,
	}
	var webhook notify.Gateway
	if cfg.WebhookURL != "" {
		webhook = notify.NewWebhookGateway(cfg.WebhookURL, cfg.Timeout())
	}
	switch {
	case cfg.TelegramBotToken != "":
		out.Primary = notify.NewTelegramGateway(cfg.TelegramAPIBase, cfg.TelegramBotToken, cfg.Timeout())
		out.Fallback = webhook
	case webhook != nil:
		out.Primary = webhook
	default:
		logger.Warn("no notification gateway configured; messages are logged only")
	}
	return out
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
