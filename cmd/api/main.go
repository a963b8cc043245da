package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dbpilot/aegis/internal/auth"
	"github.com/dbpilot/aegis/internal/background"
	"github.com/dbpilot/aegis/internal/config"
	"github.com/dbpilot/aegis/internal/database"
	"github.com/dbpilot/aegis/internal/handlers"
	middlewareCustom "github.com/dbpilot/aegis/internal/middleware"
	"github.com/dbpilot/aegis/internal/repositories"
	"github.com/dbpilot/aegis/internal/routes"
	"github.com/dbpilot/aegis/internal/security"
	"github.com/dbpilot/aegis/internal/services"
	pkghttp "github.com/dbpilot/aegis/pkg/http"
	pkglogger "github.com/dbpilot/aegis/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := db.Migrate(migrateCtx); err != nil {
		migrateCancel()
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	migrateCancel()

	// Repositories
	rateLimitRepo := repositories.NewRateLimitRepository(db)
	eventRepo := repositories.NewSecurityEventRepository(db)

	// Optional SES alerting for high-severity events
	var alerts services.AlertSender
	if cfg.Alert.Enabled {
		sesAlerts, err := services.NewSESAlertService(cfg.Alert.AWSRegion, cfg.Alert.FromAddress, cfg.Alert.ToAddress, logger)
		if err != nil {
			logger.Error("failed to initialize alert service", slog.Any("error", err))
			os.Exit(1)
		}
		alerts = sesAlerts
	}

	// Services
	secLogger := pkglogger.NewSecurityLogger(logger)

	eventConfig := services.DefaultSecurityEventConfig()
	eventConfig.DataCap = cfg.Security.EventDataCap
	eventService := services.NewSecurityEventService(eventRepo, alerts, secLogger, logger, eventConfig)

	rateLimitBounds := services.RateLimitBounds{
		MinMaxAttempts:   cfg.Security.MinMaxAttempts,
		MaxWindow:        cfg.Security.MaxWindow,
		MaxBlockDuration: cfg.Security.MaxBlockDuration,
	}
	rateLimitService := services.NewRateLimitService(rateLimitRepo, eventService, rateLimitBounds, logger)
	validationService := services.NewValidationService(eventService, logger)
	cspReportService := services.NewCSPReportService(eventService, logger)

	csrfManager := security.NewCSRFManager(cfg.Security.CSRFTokenTTL)
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret)

	// Trusted proxy ranges come from the platform load balancer in production
	ipConfig := &pkghttp.IPConfig{}

	// Handlers
	securityHandler := handlers.NewSecurityHandler(
		validationService,
		rateLimitService,
		cspReportService,
		cfg.Security.MaxBodyBytes,
		ipConfig,
	)
	csrfHandler := handlers.NewCSRFHandler(csrfManager)
	eventsHandler := handlers.NewEventsHandler(eventRepo)

	var demoHandler *handlers.DemoSessionHandler
	if len(cfg.Security.DemoSessionKey) > 0 {
		cipher, err := security.NewDemoSessionCipher(cfg.Security.DemoSessionKey)
		if err != nil {
			logger.Error("failed to initialize demo session cipher", slog.Any("error", err))
			os.Exit(1)
		}
		demoService := services.NewDemoSessionService(cipher, cfg.Security.DemoSessionTTL, eventService, logger)
		demoHandler = handlers.NewDemoSessionHandler(demoService, cfg.Security.MaxBodyBytes, ipConfig)
	}

	// Background retention sweep
	cleanupManager := background.NewCleanupManager(rateLimitRepo, logger, cfg.Security.CleanupInterval, cfg.Security.CounterRetention)

	// Router
	corsConfig := middlewareCustom.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	ipLimitConfig := middlewareCustom.IPRateLimitConfig{RequestsPerMinute: cfg.Security.RequestsPerMinute}
	routes.RegisterRoutes(router, securityHandler, csrfHandler, eventsHandler, demoHandler, tokenManager, ipLimitConfig)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
