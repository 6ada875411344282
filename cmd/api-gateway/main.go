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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/SadmanHussainChowdhury/community-complaint-api/api/swagger"
	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/handler"
	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/middleware"
	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/realtime"
	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/repository"
	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/service"
	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/cache"
	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/config"
	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/database"
	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/logger"
	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/mailer"
	corsmiddleware "github.com/SadmanHussainChowdhury/community-complaint-api/pkg/middleware/cors"
	reqidmiddleware "github.com/SadmanHussainChowdhury/community-complaint-api/pkg/middleware/requestid"
)

// @title Community Complaint API
// @version 1.0.0
// @description Complaint lifecycle engine: filing, triage, assignment, resolution and live updates.
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db); err != nil {
		logr.Fatal("failed to migrate schema", zap.Error(err))
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	switch {
	case errors.Is(err, cache.ErrDisabled):
		logr.Info("redis disabled, contact cache and cross-instance fan-out are off")
	case err != nil:
		logr.Warn("redis unavailable, continuing without it", zap.Error(err))
		redisClient = nil
	default:
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	validate := service.NewValidator()

	complaints := repository.NewComplaintRepository(db)
	assignments := repository.NewAssignmentRepository(db)
	users := repository.NewUserRepository(db)

	var contactCache service.ContactCache
	if redisClient != nil {
		contactCache = repository.NewContactCacheRepository(redisClient)
	}
	contacts := service.NewContactResolver(users, contactCache, cfg.Contacts.CacheTTL, metrics, logr)

	hub := realtime.NewHub(cfg.Realtime.SendBuffer, metrics, logr)
	defer hub.Close()

	var publisher service.RealtimePublisher = hub
	if cfg.Realtime.UseRedis && redisClient != nil {
		bus := realtime.NewRedisBus(redisClient, hub, cfg.Realtime.TopicPrefix, logr)
		publisher = bus
		go runBus(ctx, bus, logr)
	}

	dispatcher := service.NewDispatcher(service.DispatcherConfig{
		Workers:     cfg.Dispatch.Workers,
		BufferSize:  cfg.Dispatch.BufferSize,
		MaxRetries:  cfg.Dispatch.MaxRetries,
		RetryDelay:  cfg.Dispatch.RetryDelay,
		Timeout:     cfg.Dispatch.Timeout,
		TopicPrefix: cfg.Realtime.TopicPrefix,
		PublicURL:   cfg.Notifications.PublicURL,
	}, publisher, newNotifier(cfg, logr), contacts, metrics, logr)
	// Queued side effects still drain after the shutdown signal.
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	coordinator := service.NewAssignmentCoordinator(users, assignments, logr)
	complaintSvc := service.NewComplaintService(complaints, coordinator, dispatcher, validate, logr,
		service.WithComplaintMetrics(metrics))
	authSvc := service.NewAuthService(service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	}, logr)

	complaintHandler := handler.NewComplaintHandler(complaintSvc)
	liveHandler := handler.NewLiveHandler(ctx, complaintSvc, hub, cfg.Realtime.TopicPrefix, cfg.CORS.AllowedOrigins, logr)

	deps := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		deps["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	metricsHandler := handler.NewMetricsHandler(metrics, deps)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix, middleware.JWT(authSvc))
	{
		api.POST("/complaints", middleware.RequireRoles(models.RoleResident, models.RoleAdmin), complaintHandler.Create)
		api.GET("/complaints/:id", complaintHandler.Get)
		api.PATCH("/complaints/:id", complaintHandler.Update)
		api.PUT("/complaints/:id/assignment", middleware.RequireRoles(models.RoleAdmin), complaintHandler.Assign)
		api.DELETE("/complaints/:id/assignment", middleware.RequireRoles(models.RoleAdmin), complaintHandler.Unassign)
		api.GET("/complaints/:id/assignments", middleware.RequireRoles(models.RoleStaff, models.RoleAdmin), complaintHandler.Assignments)
		api.POST("/complaints/:id/notes", complaintHandler.AddNote)
		api.POST("/complaints/:id/feedback", middleware.RequireRoles(models.RoleResident), complaintHandler.SubmitFeedback)
		api.GET("/complaints/:id/live", liveHandler.Stream)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
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

// newNotifier returns nil when notices are switched off so the dispatcher skips them.
func newNotifier(cfg *config.Config, logr *zap.Logger) service.Notifier {
	if !cfg.Notifications.Enabled {
		return nil
	}
	var sender mailer.Sender = mailer.NewLogSender(logr)
	if cfg.Notifications.SMTPHost != "" {
		sender = mailer.NewSMTPSender(cfg.Notifications)
	}
	return service.NewNotificationService(sender, logr)
}

func runBus(ctx context.Context, bus *realtime.RedisBus, logr *zap.Logger) {
	for {
		err := bus.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		logr.Warn("realtime bus stopped, resubscribing", zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}
