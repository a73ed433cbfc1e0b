package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/tasktracker/api/handler"
	"github.com/fastygo/tasktracker/internal/config"
	"github.com/fastygo/tasktracker/internal/infrastructure/gormdb"
	"github.com/fastygo/tasktracker/internal/infrastructure/journal"
	"github.com/fastygo/tasktracker/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/tasktracker/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/tasktracker/internal/infrastructure/redis"
	"github.com/fastygo/tasktracker/internal/middleware"
	"github.com/fastygo/tasktracker/internal/router"
	"github.com/fastygo/tasktracker/internal/seed"
	"github.com/fastygo/tasktracker/internal/services"
	"github.com/fastygo/tasktracker/internal/services/lifecycle"
	"github.com/fastygo/tasktracker/pkg/httpcontext"
	"github.com/fastygo/tasktracker/pkg/logger"
	"github.com/fastygo/tasktracker/repository"
	"github.com/fastygo/tasktracker/repository/gormstore"
	"github.com/fastygo/tasktracker/repository/logged"
	"github.com/fastygo/tasktracker/repository/memory"
	"github.com/fastygo/tasktracker/repository/postgres"
	redisRepo "github.com/fastygo/tasktracker/repository/redis"
	"github.com/fastygo/tasktracker/usecase"
	authUC "github.com/fastygo/tasktracker/usecase/auth"
	taskUC "github.com/fastygo/tasktracker/usecase/task"
	userUC "github.com/fastygo/tasktracker/usecase/user"
)

// storage bundles the repositories of the selected driver with its health probe.
type storage struct {
	users repository.UserRepository
	tasks repository.TaskRepository
	probe *monitor.Probe
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		App:      cfg.AppName,
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, stop := manager.Listen(context.Background())
	defer stop()

	store, err := openStorage(appCtx, cfg, manager, zapLogger)
	if err != nil {
		zapLogger.Fatal("storage initialisation failed", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	if cfg.Storage.LogQueries {
		store.users = logged.Users(store.users, zapLogger.Named("repository"))
		store.tasks = logged.Tasks(store.tasks, zapLogger.Named("repository"))
	}

	if cfg.SeedData {
		if _, err := seed.Run(appCtx, store.users, store.tasks, zapLogger); err != nil {
			zapLogger.Fatal("seeding failed", zap.Error(err))
		}
	}

	probes := make([]monitor.Probe, 0, 3)
	if store.probe != nil {
		probes = append(probes, *store.probe)
	}

	var (
		recorder     usecase.ActivityRecorder
		activityList apiHandler.ActivityLister
	)
	if cfg.Journal.Enabled {
		journalStore, err := journal.Open(cfg.Journal.Path, "")
		if err != nil {
			zapLogger.Fatal("failed to open activity journal", zap.Error(err))
		}
		manager.Register("journal", func(ctx context.Context) error {
			return journalStore.Close()
		})
		recorder = services.NewActivityBridge(journalStore)
		activityList = journalStore
		probes = append(probes, monitor.JournalProbe(journalStore))

		janitor, err := services.NewJournalJanitor(journalStore, zapLogger, services.JanitorConfig{
			Interval:  cfg.Journal.CleanupInterval,
			Retention: cfg.Journal.Retention,
		})
		if err != nil {
			zapLogger.Fatal("failed to schedule journal cleanup", zap.Error(err))
		}
		janitor.Start()
		manager.Register("journal_janitor", func(ctx context.Context) error {
			janitor.Stop(ctx)
			return nil
		})
	}

	userUseCase := userUC.New(store.users, recorder, zapLogger)
	taskUseCase := taskUC.New(store.tasks, userUseCase, recorder, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
	handlers := router.Handlers{
		User:     apiHandler.NewUserHandler(userUseCase, taskUseCase, ctxAdapter, zapLogger),
		Task:     apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Activity: apiHandler.NewActivityHandler(activityList, ctxAdapter, zapLogger),
	}

	var authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler
	if cfg.Auth.Enabled {
		redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
		probes = append(probes, monitor.RedisProbe(redisClient, true))

		sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.Auth.SessionTTL)
		authUseCase := authUC.New(store.users, sessionRepo, authUC.Config{
			Secret: cfg.Auth.Secret,
			Issuer: cfg.Auth.Issuer,
			TTL:    cfg.Auth.SessionTTL,
		}, zapLogger)
		handlers.Auth = apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger)
		authMiddleware = middleware.SessionAuth(authUseCase, cfg.Context.RequestTimeout, zapLogger)
	}

	mon := monitor.New(10*time.Second, zapLogger, probes...)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})
	handlers.Health = apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger)

	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      middleware.AccessLog(zapLogger.Named("http"))(r.Handler),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver),
			zap.Bool("auth", cfg.Auth.Enabled),
			zap.Bool("journal", cfg.Journal.Enabled))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()
	zapLogger.Info("shutdown signal received")

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

func openStorage(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			return nil, err
		}
		manager.Register("postgres", func(context.Context) error {
			pgInfra.Close(pool, zapLogger)
			return nil
		})
		probe := monitor.PostgresProbe(pool)
		return &storage{
			users: postgres.NewUserRepository(pool),
			tasks: postgres.NewTaskRepository(pool),
			probe: &probe,
		}, nil

	case config.DriverGormPostgres, config.DriverSQLite:
		db, err := gormdb.Open(cfg, zapLogger)
		if err != nil {
			return nil, err
		}
		manager.Register(cfg.Storage.Driver, func(context.Context) error {
			return gormdb.Close(db, zapLogger)
		})
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		probe := monitor.SQLProbe(cfg.Storage.Driver, sqlDB)
		store := gormstore.New(db)
		return &storage{
			users: store.UserRepository(),
			tasks: store.TaskRepository(),
			probe: &probe,
		}, nil

	case config.DriverMemory:
		zapLogger.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return &storage{
			users: store.UserRepository(),
			tasks: store.TaskRepository(),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
