package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pawlink/core/internal/config"
	"github.com/pawlink/core/internal/database"
	"github.com/pawlink/core/internal/middleware"
	"github.com/pawlink/core/internal/modules/review"
	pkgcron "github.com/pawlink/core/internal/pkg/cron"
	"github.com/pawlink/core/internal/pkg/jwt"
	pkgredis "github.com/pawlink/core/internal/pkg/redis"
	"github.com/pawlink/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg       *config.AppConfig
	router    *gin.Engine
	db        *gorm.DB
	logger    *zap.Logger
	cancel    context.CancelFunc
	sched     *pkgcron.Scheduler
	reviewSvc *review.Service
}

// New initializes the application: config → DB → Redis → services → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if cfg.JWTSecret != "" {
		jwt.SetSecret(cfg.JWTSecret)
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	client, err := review.NewCompletionClient(cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("ai provider: %w", err)
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
	router.Use(cors.New(corsConfig(cfg)))
	router.Use(middleware.RateLimit(rc.Raw()))

	taskSvc := taskqueue.NewService(rc)
	cache := review.NewMemoryContextCache()
	reviewSvc := review.NewService(db, client, cache, taskSvc,
		review.OptionsFromConfig(cfg.Analysis),
		review.WithLogger(logger),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go reviewSvc.RunBuilder(ctx)

	sched := pkgcron.New()
	registerCronJobs(sched, cache, taskSvc, cfg, logger)
	go sched.Start(ctx)

	app := &App{
		cfg:       cfg,
		router:    router,
		db:        db,
		logger:    logger,
		cancel:    cancel,
		sched:     sched,
		reviewSvc: reviewSvc,
	}
	app.registerRoutes()
	return app, nil
}

func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		c.AllowOrigins = cfg.AllowedOrigins
	} else {
		c.AllowOriginFunc = func(string) bool { return true }
	}
	return c
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown cleans up background goroutines.
func (a *App) Shutdown() { a.cancel() }
