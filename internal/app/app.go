package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/vinnu2910/edutainverse/internal/data/cache"
	"github.com/vinnu2910/edutainverse/internal/data/db"
	apphttp "github.com/vinnu2910/edutainverse/internal/http"
	"github.com/vinnu2910/edutainverse/internal/observability"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Services Services
	Server   *apphttp.Server

	store        *db.PostgresService
	cache        cache.ProgressCache
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := pg.DB()

	progressCache, err := cache.NewProgressCache(log)
	if err != nil {
		log.Warn("Progress cache unavailable; continuing without it", "error", err)
		progressCache = cache.NoopProgressCache{}
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, progressCache)
	if err != nil {
		_ = progressCache.Close()
		_ = pg.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(theDB, log, serviceset)
	middleware := wireMiddleware(log, serviceset)
	server := apphttp.NewServer(cfg.HTTPAddr, apphttp.RouterConfig{
		Log:                log,
		ServiceName:        cfg.ServiceName,
		CORSOrigins:        cfg.CORSOrigins,
		AdminRole:          cfg.AdminRole,
		Metrics:            observability.Current(),
		AuthMiddleware:     middleware.Auth,
		HealthHandler:      handlerset.Health,
		CourseHandler:      handlerset.Course,
		ProgressHandler:    handlerset.Progress,
		MembershipHandler:  handlerset.Membership,
		AdminCourseHandler: handlerset.AdminCourse,
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Server:       server,
		store:        pg,
		cache:        progressCache,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until Shutdown.
func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr, "progress_policy", a.Cfg.ProgressPolicy)
	return a.Server.Run()
}

// Shutdown drains in-flight requests, then releases the cache, database and
// telemetry in that order.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Server != nil {
		errs = append(errs, a.Server.Shutdown(ctx))
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.otelShutdown != nil {
		errs = append(errs, a.otelShutdown(ctx))
	}
	if a.Log != nil {
		a.Log.Sync()
	}
	return errors.Join(errs...)
}
