package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/daveytran/roundscheduler-sub000/api/swagger"
	"github.com/daveytran/roundscheduler-sub000/internal/handler"
	"github.com/daveytran/roundscheduler-sub000/internal/middleware"
	"github.com/daveytran/roundscheduler-sub000/internal/models"
	"github.com/daveytran/roundscheduler-sub000/internal/repository"
	"github.com/daveytran/roundscheduler-sub000/internal/service"
	"github.com/daveytran/roundscheduler-sub000/pkg/cache"
	"github.com/daveytran/roundscheduler-sub000/pkg/config"
	"github.com/daveytran/roundscheduler-sub000/pkg/database"
	"github.com/daveytran/roundscheduler-sub000/pkg/jobs"
	"github.com/daveytran/roundscheduler-sub000/pkg/logger"
	corsmiddleware "github.com/daveytran/roundscheduler-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/daveytran/roundscheduler-sub000/pkg/middleware/requestid"
	"github.com/daveytran/roundscheduler-sub000/pkg/storage"
)

// @title Round Scheduler API
// @version 1.0.0
// @description Tournament scheduling and metaheuristic optimization service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()

	tournamentRepo := repository.NewTournamentRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "roundscheduler",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	tournamentSvc := service.NewTournamentService(db, tournamentRepo, scheduleRepo, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, tournamentRepo, logr)

	var optimizeSvc *service.OptimizeService
	optimizeQueue := jobs.NewQueue("optimize", func(ctx context.Context, job jobs.Job) error {
		return optimizeSvc.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Optimizer.WorkerConcurrency,
		MaxRetries: cfg.Optimizer.WorkerRetries,
		Logger:     logr,
	})
	optimizeSvc = service.NewOptimizeService(scheduleRepo, tournamentRepo, cacheRepo, optimizeQueue, metricsSvc, validate, logr, service.OptimizeServiceConfig{
		DefaultStrategy:   cfg.Optimizer.DefaultStrategy,
		DefaultIterations: cfg.Optimizer.DefaultIterations,
		MaxIterations:     cfg.Optimizer.MaxIterations,
		JobTimeout:        cfg.Optimizer.JobTimeout,
		SnapshotTTL:       cfg.Optimizer.SnapshotTTL,
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := optimizeSvc.PurgeStaleJobs(rootCtx); err != nil {
		logr.Sugar().Warnw("failed to purge stale optimization jobs", "error", err)
	}
	optimizeQueue.Start(rootCtx)
	defer optimizeQueue.Stop()

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		localStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(scheduleRepo, tournamentRepo, localStore, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
		}, logr, nil, nil)

		go runExportCleanup(rootCtx, exportSvc, cfg.Exports.CleanupInterval, logr)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	tournamentHandler := handler.NewTournamentHandler(tournamentSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	optimizeHandler := handler.NewOptimizeHandler(optimizeSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "database"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)

		authed := auth.Group("", middleware.JWT(authSvc))
		authed.POST("/logout", authHandler.Logout)
		authed.POST("/change-password", authHandler.ChangePassword)
		authed.GET("/me", authHandler.Me)
	}

	users := api.Group("/users", middleware.JWT(authSvc))
	{
		users.GET("", middleware.RequireRoles(models.RoleAdmin), userHandler.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Get)
		users.POST("", middleware.RequireRoles(models.RoleAdmin), userHandler.Create)
		users.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Update)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Delete)
	}

	tournaments := api.Group("/tournaments", middleware.JWT(authSvc))
	{
		tournaments.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleOrganizer), tournamentHandler.Import)
		tournaments.GET("", tournamentHandler.List)
		tournaments.GET("/:id", tournamentHandler.Get)
		tournaments.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleOrganizer), tournamentHandler.Delete)
	}

	schedules := api.Group("/schedules", middleware.JWT(authSvc))
	{
		schedules.GET("", scheduleHandler.List)
		schedules.GET("/:id", scheduleHandler.Get)
		schedules.POST("/:id/evaluate", scheduleHandler.Evaluate)
		schedules.POST("/:id/publish", middleware.RequireRoles(models.RoleAdmin, models.RoleOrganizer), scheduleHandler.Publish)
		schedules.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleOrganizer), scheduleHandler.Delete)
	}

	optimize := api.Group("/optimize", middleware.JWT(authSvc))
	{
		optimize.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleOrganizer), optimizeHandler.Create)
		optimize.GET("/:id", optimizeHandler.Status)
		optimize.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleOrganizer), optimizeHandler.Cancel)
	}

	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc)
		schedules.POST("/:id/export", exportHandler.Create)
		api.GET("/export/:token", exportHandler.Download)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

func runExportCleanup(ctx context.Context, exports *service.ExportService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := exports.Cleanup(0)
			if err != nil {
				logr.Sugar().Warnw("export cleanup failed", "error", err)
				continue
			}
			if len(removed) > 0 {
				logr.Sugar().Infow("export cleanup removed files", "count", len(removed))
			}
		}
	}
}
