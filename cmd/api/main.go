package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	_ "github.com/studyhall/planner-api/api/swagger"
	"github.com/studyhall/planner-api/internal/handler"
	"github.com/studyhall/planner-api/internal/repository"
	"github.com/studyhall/planner-api/internal/service"
	"github.com/studyhall/planner-api/pkg/cache"
	"github.com/studyhall/planner-api/pkg/config"
	"github.com/studyhall/planner-api/pkg/database"
	"github.com/studyhall/planner-api/pkg/jobs"
	"github.com/studyhall/planner-api/pkg/logger"
	"github.com/studyhall/planner-api/pkg/storage"
)

// @title Planner API
// @version 1.0.0
// @description Personal student planner: subjects, timetable, tasks, study sessions and exports
// @BasePath /api
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	validate := service.NewValidator()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
		cacheSvc = service.NewCacheService(nil, metrics, cfg.Dashboard.CacheTTL, logr, false)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)
	}

	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classRepo := repository.NewClassRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	subjectSvc := service.NewSubjectService(subjectRepo, cacheSvc, validate, logr)
	classSvc := service.NewClassService(classRepo, subjectRepo, cacheSvc, validate, logr)
	taskSvc := service.NewTaskService(taskRepo, subjectRepo, cacheSvc, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, subjectRepo, cacheSvc, validate, logr)

	plannerData := service.PlannerData{ClassRepo: classRepo, TaskRepo: taskRepo, SessionRepo: sessionRepo}
	dashboardSvc := service.NewDashboardService(plannerData, subjectRepo, classRepo, taskRepo, sessionRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)

	var exportSvc *service.ExportService
	var dispatcher *jobs.Dispatcher
	if cfg.Exports.Enabled {
		files, err := storage.NewFileStore(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewDownloadSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportRepo := repository.NewExportRepository(db)

		dispatcher = jobs.NewDispatcher(jobs.Options{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exportSvc = service.NewExportService(exportRepo, plannerData, dispatcher, files, signer, metrics, validate, logr, service.ExportServiceConfig{
			DownloadPathPrefix: cfg.APIPrefix + "/exports/download",
			ResultTTL:          cfg.Exports.SignedURLTTL,
			CleanupInterval:    cfg.Exports.CleanupInterval,
			MaxRetries:         cfg.Exports.WorkerRetries,
		})
		dispatcher.Register("export", exportSvc.Handle)
		dispatcher.Start(ctx)
		defer dispatcher.Stop()

		exportSvc.RecoverPendingJobs(ctx)
		exportSvc.StartCleanup(ctx)
	}

	router := handler.NewRouter(cfg, logr, handler.Services{
		Auth:      authSvc,
		Subjects:  subjectSvc,
		Classes:   classSvc,
		Tasks:     taskSvc,
		Sessions:  sessionSvc,
		Dashboard: dashboardSvc,
		Exports:   exportSvc,
		Metrics:   metrics,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
