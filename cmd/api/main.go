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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/courseflow-api/api/swagger"
	"github.com/noah-isme/courseflow-api/internal/handler"
	internalmiddleware "github.com/noah-isme/courseflow-api/internal/middleware"
	"github.com/noah-isme/courseflow-api/internal/repository"
	"github.com/noah-isme/courseflow-api/internal/router"
	"github.com/noah-isme/courseflow-api/internal/service"
	"github.com/noah-isme/courseflow-api/pkg/cache"
	"github.com/noah-isme/courseflow-api/pkg/config"
	"github.com/noah-isme/courseflow-api/pkg/database"
	"github.com/noah-isme/courseflow-api/pkg/jobs"
	"github.com/noah-isme/courseflow-api/pkg/logger"
	"github.com/noah-isme/courseflow-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/courseflow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/courseflow-api/pkg/middleware/requestid"
	"github.com/noah-isme/courseflow-api/pkg/ratelimit"
	"github.com/noah-isme/courseflow-api/pkg/response"
	"github.com/noah-isme/courseflow-api/pkg/validation"
)

// @title CourseFlow API
// @version 1.0.0
// @description University course management service
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

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

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	response.IncludeStack(!cfg.IsProduction())

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			logr.Fatal("failed to apply schema", zap.Error(err))
		}
	}

	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching and rate limiting disabled", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	mailQueue := jobs.NewQueue("mail", service.NewMailJobHandler(mailer.NewSMTPMailer(cfg.Mail, logr), logr), jobs.QueueConfig{
		Workers:    cfg.Mail.Workers,
		MaxRetries: 3,
		Logger:     logr,
		OnDrop: func(job jobs.Job, _ error) {
			metrics.RecordAuthEvent(job.Type, false)
		},
	})
	mailQueue.Start(ctx)
	defer mailQueue.Stop()

	engine := buildEngine(cfg, logr, db, rdb, mailQueue, metrics)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("prefix", cfg.APIPrefix))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildEngine(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, rdb *redis.Client, mail *jobs.Queue, metrics *service.MetricsService) *gin.Engine {
	validate := validation.New()

	cacheRepo := repository.NewCacheRepository(rdb, "courseflow:")
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Stats.CacheTTL, logr, cacheRepo.Enabled())

	departmentRepo := repository.NewDepartmentRepository(db, metrics)
	courseRepo := repository.NewCourseRepository(db, metrics)
	scheduleRepo := repository.NewScheduleRepository(db, metrics)
	complaintRepo := repository.NewComplaintRepository(db, metrics)
	userRepo := repository.NewUserRepository(db, metrics)
	codeRepo := repository.NewVerificationCodeRepository(db, metrics)

	departments := service.NewDepartmentService(departmentRepo, cacheSvc, metrics, validate, logr)
	courses := service.NewCourseService(courseRepo, departmentRepo, cacheSvc, metrics, validate, logr)
	schedules := service.NewScheduleService(scheduleRepo, courseRepo, cacheSvc, metrics, validate, logr)
	complaints := service.NewComplaintService(complaintRepo, validate, logr)
	users := service.NewUserService(userRepo, validate, logr)
	codes := service.NewVerificationCodeService(codeRepo, validate, logr)
	health := service.NewHealthService(repository.NewHealthRepository(db), cacheRepo, metrics, cfg.Env, cfg.Version, logr)
	auth := service.NewAuthService(userRepo, codeRepo, mail, metrics, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		ResetTokenTTL:     cfg.Auth.ResetTokenTTL,
		ResetURLBase:      cfg.Auth.ResetURLBase,
		ExposeResetToken:  cfg.Auth.ExposeResetToken,
	})

	limiter := ratelimit.New(rdb, "", cfg.RateLimit.TTL, cfg.RateLimit.Max)

	r := gin.New()
	r.Use(internalmiddleware.Recovery(logr))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.RateLimit(limiter, logr))
	r.Use(internalmiddleware.ErrorLogger(logr))

	maxUpload := cfg.Import.MaxUploadBytes
	router.Setup(r, auth, router.Handlers{
		Auth:        handler.NewAuthHandler(auth, codes),
		Departments: handler.NewDepartmentHandler(departments, maxUpload),
		Courses:     handler.NewCourseHandler(courses, maxUpload),
		Schedules:   handler.NewScheduleHandler(schedules, maxUpload),
		Complaints:  handler.NewComplaintHandler(complaints),
		Users:       handler.NewUserHandler(users),
		Health:      handler.NewHealthHandler(health),
		Metrics:     handler.NewMetricsHandler(metrics.Handler()),
	}, router.Options{
		Prefix:  cfg.APIPrefix,
		Swagger: cfg.Swagger.Enabled && !cfg.IsProduction(),
	})

	return r
}
