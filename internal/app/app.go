package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/docspace/core/internal/config"
	"github.com/docspace/core/internal/database"
	"github.com/docspace/core/internal/middleware"
	"github.com/docspace/core/internal/modules/document"
	"github.com/docspace/core/internal/modules/indexer"
	"github.com/docspace/core/internal/modules/sessions"
	pkgcron "github.com/docspace/core/internal/pkg/cron"
	jwtpkg "github.com/docspace/core/internal/pkg/jwt"
	pkgredis "github.com/docspace/core/internal/pkg/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	db       *gorm.DB
	registry *sessions.Registry
	coord    *indexer.Coordinator
	logger   *zap.Logger
	cancel   context.CancelFunc
	sched    *pkgcron.Scheduler
}

// New initializes the application: config → DB → Redis → session registry →
// index coordinator → recovery → routes. Recovery runs before the router is
// returned, so no request is served against empty session state.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		jwtpkg.SetSecret(secret)
	} else {
		logger.Warn("jwt_secret is empty, using built-in default secret")
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(buildCORSConfig(cfg)))

	tracker := sessions.NewTracker()
	registry := sessions.NewRegistry(
		sessions.NewGormStore(db),
		tracker,
		sessions.WithTTL(cfg.SessionTTL()),
		sessions.WithLogger(logger),
	)

	searchClient := indexer.NewMeiliClient(cfg.Indexer.Host, cfg.Indexer.APIKey, cfg.Indexer.IndexPrefix)
	docSvc := document.NewService(db, searchClient, document.WithLogger(logger))
	coord := indexer.NewCoordinator(searchClient, docSvc,
		indexer.WithBuildTimeout(cfg.BuildTimeout()),
		indexer.WithLogger(logger),
	)
	tracker.Subscribe(coord)

	ctx, cancel := context.WithCancel(context.Background())

	// Rehydrate sessions before serving; organizations that were active
	// across the restart re-trigger their index builds here.
	if _, err := registry.Recover(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("session recovery: %w", err)
	}

	sched := pkgcron.New(logger)
	registerCronJobs(sched, db, registry, coord, cfg, logger)
	go sched.Start(ctx)

	app := &App{
		cfg:      cfg,
		router:   router,
		db:       db,
		registry: registry,
		coord:    coord,
		logger:   logger,
		cancel:   cancel,
		sched:    sched,
	}
	app.registerRoutes(rc, docSvc)

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background goroutines (cron jobs, sweeper).
func (a *App) Shutdown() { a.cancel() }

func buildCORSConfig(cfg *config.AppConfig) cors.Config {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "x-idempotence"},
		ExposeHeaders:    []string{"Content-Length", "x-ds-served-by"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		corsConfig.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	return corsConfig
}
