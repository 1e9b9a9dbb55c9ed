package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/postgrad-supervision-api/internal/repository"
	"github.com/noah-isme/postgrad-supervision-api/internal/service"
	"github.com/noah-isme/postgrad-supervision-api/pkg/cache"
	"github.com/noah-isme/postgrad-supervision-api/pkg/config"
	"github.com/noah-isme/postgrad-supervision-api/pkg/database"
	"github.com/noah-isme/postgrad-supervision-api/pkg/export"
	"github.com/noah-isme/postgrad-supervision-api/pkg/jobs"
	"github.com/noah-isme/postgrad-supervision-api/pkg/logger"
	"github.com/noah-isme/postgrad-supervision-api/pkg/mailer"
	"github.com/noah-isme/postgrad-supervision-api/pkg/response"
	"github.com/noah-isme/postgrad-supervision-api/pkg/storage"
)

// @title Postgrad Supervision API
// @version 1.0.0
// @description Document submission, review and weekly progress tracking for postgraduate supervision
// @BasePath /api/v1
// @schemes http https
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

	response.ConfigureErrors(logr, !cfg.IsProduction())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	var cacheRepo service.CacheRepository
	if cfg.Progress.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, progress cache disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close()
			cacheRepo = redisRepo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Progress.CacheTTL, logr, cfg.Progress.CacheEnabled)

	files, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Fatal("failed to prepare upload directory", zap.String("dir", cfg.Uploads.Dir), zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	sender, err := mailer.New(cfg.Email, mailer.NewRenderer("Postgrad Supervision Portal", cfg.FrontendURL), logr)
	if err != nil {
		logr.Fatal("failed to configure mailer", zap.Error(err))
	}

	users := repository.NewUserRepository(db)
	tokens := repository.NewTokenRepository(db)
	supervision := repository.NewSupervisionRepository(db)
	documents := repository.NewDocumentRepository(db)
	weekly := repository.NewWeeklySubmissionRepository(db)
	reviews := repository.NewReviewRepository(db)
	notifications := repository.NewNotificationRepository(db)

	queue := jobs.NewQueue("effects", jobs.QueueConfig{
		Workers:    cfg.Effects.Workers,
		MaxRetries: cfg.Effects.MaxRetries,
		RetryDelay: cfg.Effects.RetryDelay,
		Logger:     logr,
	})
	effects := service.NewEffectsService(queue, sender, notifications, metricsSvc, logr)
	queue.Start(context.Background())
	defer queue.Stop()

	services := routeServices{
		auth: service.NewAuthService(users, tokens, effects, metricsSvc, validate, logr, service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			AccessTokenExpiry: cfg.JWT.Expiration,
			Issuer:            cfg.JWT.Issuer,
			ExposeSecrets:     !cfg.IsProduction(),
		}),
		documents: service.NewDocumentService(documents, supervision, weekly, files, signer, effects, cacheSvc, metricsSvc, validate, logr, service.DocumentServiceConfig{
			MaxFileSize:       cfg.Uploads.MaxFileSizeBytes,
			AllowedExtensions: cfg.Uploads.AllowedExtensions,
			APIPrefix:         cfg.APIPrefix,
		}),
		reviews:       service.NewReviewService(reviews, documents, supervision, effects, metricsSvc, validate, logr),
		notifications: service.NewNotificationService(notifications, logr),
		progress:      service.NewProgressService(supervision, weekly, cacheSvc, logr, export.NewPDFExporter(), export.NewCSVExporter()),
		assignments:   service.NewAssignmentService(supervision, effects, validate, logr),
		metrics:       metricsSvc,
		db:            db,
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, logr, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
