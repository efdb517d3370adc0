package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/nsrz/intranet/internal/api/http"
	"github.com/nsrz/intranet/internal/api/http/handlers"
	"github.com/nsrz/intranet/internal/auth"
	"github.com/nsrz/intranet/internal/config"
	"github.com/nsrz/intranet/internal/events"
	"github.com/nsrz/intranet/internal/observability"
	"github.com/nsrz/intranet/internal/persistence"
	"github.com/nsrz/intranet/internal/repository"
	"github.com/nsrz/intranet/internal/service"
	"github.com/nsrz/intranet/internal/storage"
	"github.com/nsrz/intranet/internal/worker"
)

const uploadsPrefix = "/uploads"

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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("invalid redis configuration", zap.Error(err))
	}
	defer redis.Close()

	pool := pg.PoolHandle()
	txManager := persistence.NewTxManager(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	positionRepo := repository.NewPositionRepository(pool)
	employeeRepo := repository.NewEmployeeRepository(pool)
	newsRepo := repository.NewNewsRepository(pool)

	dispatcher := worker.NewAsyncDispatcher(events.NewInMemoryDispatcher(), 256, logger)
	dispatcher.Start(ctx)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))

	departmentService := service.NewDepartmentService(service.DepartmentDependencies{
		DepartmentRepo:   departmentRepo,
		TxManager:        txManager,
		Dispatcher:       dispatcher,
		Logger:           logger,
		OrganizationName: cfg.App.OrganizationName,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:       userRepo,
		DepartmentRepo: departmentRepo,
		TxManager:      txManager,
		Dispatcher:     dispatcher,
		Logger:         logger,
		BcryptCost:     cfg.Auth.BcryptCost,
	})
	positionService := service.NewPositionService(service.PositionDependencies{
		PositionRepo:   positionRepo,
		DepartmentRepo: departmentRepo,
		TxManager:      txManager,
		Logger:         logger,
	})
	employeeService := service.NewEmployeeService(service.EmployeeDependencies{
		EmployeeRepo:   employeeRepo,
		PositionRepo:   positionRepo,
		DepartmentRepo: departmentRepo,
		TxManager:      txManager,
		Logger:         logger,
	})
	newsService := service.NewNewsService(service.NewsDependencies{
		NewsRepo:   newsRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	phonebookService := service.NewPhonebookService(employeeRepo)

	sessions := auth.NewRedisSessionStore(redis.Client)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:     userRepo,
		SessionStore: sessions,
		Logger:       logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, sessions, logger)
	authorizer, err := auth.NewAuthorizer()
	if err != nil {
		logger.Fatal("failed to build authorizer", zap.Error(err))
	}

	images, err := storage.NewImageStore(cfg.Uploads.Dir, uploadsPrefix, int64(cfg.Uploads.MaxBytes))
	if err != nil {
		logger.Fatal("failed to prepare uploads", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(cfg.App.Name, logger, metrics, int64(cfg.Uploads.MaxBytes))
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:     cfg.App.RequestTimeout(),
		CORSOrigins: cfg.App.CORSOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Departments:    handlers.NewDepartmentsHandler(departmentService),
		Users:          handlers.NewUsersHandler(userService),
		Staff:          handlers.NewStaffHandler(positionService, employeeService),
		Phonebook:      handlers.NewPhonebookHandler(phonebookService),
		News:           handlers.NewNewsHandler(newsService, images, logger),
		AuthMiddleware: authMiddleware,
		Authorizer:     authorizer,
		Metrics:        metrics,
		UploadsDir:     images.Dir(),
		UploadsPrefix:  images.PublicPrefix(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	dispatcher.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
