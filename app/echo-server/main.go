package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maternityCare/app/echo-server/metrics"
	"maternityCare/app/echo-server/router"
	"maternityCare/business/alerts"
	"maternityCare/business/copywriter"
	"maternityCare/business/events"
	"maternityCare/business/plan"
	"maternityCare/business/preferences"
	"maternityCare/business/signals"
	"maternityCare/internal/bootstrap"
	"maternityCare/internal/middleware"
	"maternityCare/internal/repository/notification"
	psqlRepo "maternityCare/internal/repository/postgres"
	redisRepo "maternityCare/internal/repository/redis"
	"maternityCare/internal/rest"
	"maternityCare/pkg/config"
	"maternityCare/pkg/database"
	redisdb "maternityCare/pkg/database/redis"
	"maternityCare/pkg/logger"
	domainmetrics "maternityCare/pkg/metrics"
	"maternityCare/pkg/utils"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	defer logger.Sync()
	logger.Info("Starting Maternity Signal API", "version", cfg.App.Version)

	utils.SetJWTSecret(cfg.JWT.SecretKey)
	metrics.Init()
	domainmetrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}
	logger.Info("Database connected successfully")

	redisClient, err := redisdb.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", "error", err)
	}
	defer redisdb.CloseRedisClient(redisClient)

	location, err := time.LoadLocation(cfg.Plan.Timezone)
	if err != nil {
		logger.Fatal("Invalid plan timezone", "timezone", cfg.Plan.Timezone, "error", err)
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	signalChain, err := bootstrap.BuildChain(initCtx, bootstrap.StageSignals, cfg.Oracle)
	if err != nil {
		logger.Fatal("Failed to build signal oracle chain", "error", err)
	}
	copyChain, err := bootstrap.BuildChain(initCtx, bootstrap.StageCopy, cfg.Oracle)
	if err != nil {
		logger.Fatal("Failed to build copy oracle chain", "error", err)
	}
	cancelInit()

	// Care-team notifications go out through mailjet
	mailjetEmail := notification.NewMailjetRepository(
		notification.MailjetConfig{
			MailjetBaseURL:           cfg.Mailjet.MailjetBaseUrl,
			MailjetBasicAuthUsername: cfg.Mailjet.MailjetBasicAuthUsername,
			MailjetBasicAuthPassword: cfg.Mailjet.MailjetBasicAuthPassword,
			MailjetSenderEmail:       cfg.Mailjet.MailjetSenderEmail,
			MailjetSenderName:        cfg.Mailjet.MailjetSenderName,
			CareTeamEmail:            cfg.Mailjet.CareTeamEmail,
			CareTeamName:             cfg.Mailjet.CareTeamName,
		},
	)

	// Init repo
	eventRepo := psqlRepo.NewEventRepository(db)
	signalRepo := psqlRepo.NewSignalRepository(db)
	alertRepo := psqlRepo.NewAlertRepository(db)
	preferenceRepo := psqlRepo.NewPreferenceRepository(db)
	contentRepo := psqlRepo.NewContentRepository(db)
	chatRepo := psqlRepo.NewChatRepository(db)
	profileRepo := psqlRepo.NewProfileRepository(db)
	frequencyRepo := psqlRepo.NewFrequencyRepository(db)
	planCache := redisRepo.NewPlanCacheRepository(redisClient)

	// Init service
	eventService := events.NewEventService(eventRepo, events.Config{
		RateLimit:       cfg.Gateway.RateLimit,
		RateWindow:      cfg.Gateway.RateWindow,
		MaxPayloadBytes: cfg.Gateway.MaxPayloadBytes,
	})
	alertService := alerts.NewAlertService(alertRepo, mailjetEmail).WithHistory(signalRepo)
	signalService := signals.NewSignalService(eventRepo, chatRepo, profileRepo, signalRepo, alertService, signalChain, signals.Config{
		EventWindow:  cfg.Signal.EventWindow,
		MaxEvents:    cfg.Signal.MaxEvents,
		MaxChatTurns: cfg.Signal.MaxChatTurns,
	})
	preferenceService := preferences.NewPreferenceService(preferenceRepo, preferences.Config{
		LookbackDays:    cfg.Signal.InteractionDays,
		MaxInteractions: cfg.Signal.MaxInteractions,
	})
	copyService := copywriter.NewCopyService(copyChain, cfg.Plan.DefaultMaxLength)
	planService := plan.NewPlanService(plan.Deps{
		Snapshots:   signalRepo,
		Preferences: preferenceRepo,
		Profiles:    profileRepo,
		Catalog:     contentRepo,
		Frequency:   frequencyRepo,
		Cache:       planCache,
		Composer:    copyService,
	}, plan.Config{
		Location:          location,
		DefaultFrequency:  cfg.Plan.DefaultFrequency,
		RenderConcurrency: cfg.Plan.RenderConcurrency,
	})

	// Init handler
	eventHandler := rest.NewEventHandler(eventService)
	signalHandler := rest.NewSignalHandler(signalService, 4*cfg.Oracle.Timeout)
	preferenceHandler := rest.NewPreferenceHandler(preferenceService)
	copyHandler := rest.NewCopyHandler(copyService)
	planHandler := rest.NewPlanHandler(planService)
	alertHandler := rest.NewAlertAdminHandler(alertService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit("64K"))
	e.Use(metrics.Middleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowOrigin,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupSignalRoutes(api, eventHandler, signalHandler, preferenceHandler, copyHandler)
	router.SetupPlanRoutes(api, planHandler)
	router.SetupAlertAdminRoutes(api, alertHandler)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
