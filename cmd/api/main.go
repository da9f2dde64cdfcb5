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

	httptransport "github.com/spec-kit/ticket-lifecycle/internal/api/http"
	"github.com/spec-kit/ticket-lifecycle/internal/api/http/handlers"
	"github.com/spec-kit/ticket-lifecycle/internal/auth"
	"github.com/spec-kit/ticket-lifecycle/internal/config"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/lock"
	"github.com/spec-kit/ticket-lifecycle/internal/observability"
	"github.com/spec-kit/ticket-lifecycle/internal/persistence"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	"github.com/spec-kit/ticket-lifecycle/internal/repository/memstore"
	"github.com/spec-kit/ticket-lifecycle/internal/service"
	"github.com/spec-kit/ticket-lifecycle/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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

	var store *repository.Store
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pg.Pool)
	} else {
		store = memstore.New().Repositories()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var locker lock.Locker = lock.NewLocal(cfg.Engine.LockWait())
	if cfg.Engine.LockBackend == config.LockBackendRedis {
		locker = lock.NewRedis(redis.Client, cfg.Engine.LockTTL(), cfg.Engine.LockWait(), logger)
	}

	if cfg.Engine.CatalogFile != "" {
		catalog, err := config.LoadCatalog(cfg.Engine.CatalogFile)
		if err != nil {
			logger.Fatal("failed to load catalog", zap.Error(err))
		}
		if err := service.SeedCatalog(ctx, store, catalog, logger); err != nil {
			logger.Fatal("failed to seed catalog", zap.Error(err))
		}
	}

	notifications := worker.StartNotificationWorker(cfg.Notification, logger)

	engine := service.NewEngine(service.EngineDependencies{
		Store:              store,
		Locker:             locker,
		Dispatcher:         notifications.Dispatcher(),
		Logger:             logger,
		OverridePermission: domain.Permission(cfg.Engine.StatusOverridePermission),
	})
	ticketService := service.NewTicketService(engine)
	assignmentService := service.NewAssignmentService(engine)
	budgetService := service.NewBudgetService(engine, cfg.Engine.CountUnvalidatedTime)
	slaService := service.NewSLAService(store.SLA, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Dependency{
			"postgres": pg,
			"redis":    redis,
		}),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Assignments:    handlers.NewAssignmentsHandler(assignmentService),
		Budget:         handlers.NewBudgetHandler(budgetService),
		SLA:            handlers.NewSLAHandler(slaService),
		AuthMiddleware: auth.NewMiddleware(tokens),
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := notifications.Stop(shutdownCtx); err != nil {
		logger.Warn("notification worker shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
