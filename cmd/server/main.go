package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SiteNotice/SiteNotice/internal/config"
	"github.com/SiteNotice/SiteNotice/internal/handler"
	"github.com/SiteNotice/SiteNotice/internal/models"
	"github.com/SiteNotice/SiteNotice/internal/repository"
	"github.com/SiteNotice/SiteNotice/internal/service"
	"github.com/SiteNotice/SiteNotice/pkg/database"
	"github.com/SiteNotice/SiteNotice/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// Initialize structured logger
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	logger.Init(logger.Config{
		Level:  logLevel,
		Format: logFormat,
		Output: os.Stdout,
	})

	// Load configuration
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Configuration error")
	}

	logger.Info().
		Str("bind_address", cfg.Server.BindAddress).
		Str("port", cfg.Server.Port).
		Str("log_level", logLevel).
		Msg("Starting SiteNotice server")

	// Initialize database
	db, err := database.Initialize(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	logger.Info().Str("path", cfg.Database.Path).Msg("Database initialized")

	if err := database.InitSchema(db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize schema")
	}
	logger.Info().Msg("Database schema initialized")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Initialize services
	authSvc := service.NewAuthService(userRepo, cfg)
	noticeSvc := service.NewNoticeService(settingsRepo, userRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authSvc, settingsRepo)
	noticeHandler := handler.NewNoticeHandler(noticeSvc)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:               1 * 1024 * 1024, // JSON API only
		ReadTimeout:             10 * time.Second,
		WriteTimeout:            30 * time.Second,
		IdleTimeout:             60 * time.Second,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          cfg.Server.TrustedProxies,
		EnableIPValidation:      true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelDefault,
	}))
	app.Use(handler.SecurityHeadersMiddleware())
	app.Use(handler.RequestIDMiddleware())
	app.Use(handler.MetricsMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-CSRF-Token",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
		MaxAge:           3600, // Cache preflight responses for 1 hour
	}))
	app.Use(logger.Middleware())

	// Routes
	api := app.Group("/api/v1")

	// Login and setup are unauthenticated, so limit by IP.
	authRateLimiter := handler.NewRateLimiter(10, 1*time.Minute)

	// Public render endpoint, evaluated per request
	api.Get("/notice", noticeHandler.Render)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/login", authRateLimiter.Middleware(), authHandler.Login)
	auth.Post("/logout", handler.CSRFMiddleware(), authHandler.Logout)
	auth.Get("/me", handler.AuthMiddleware(authSvc), authHandler.GetMe)

	// Setup routes (unauthenticated, rate-limited)
	setup := api.Group("/setup")
	setup.Get("/status", authHandler.CheckSetupStatus)
	setup.Post("/complete", authRateLimiter.Middleware(), authHandler.CompleteSetup)

	// Admin routes (authenticated + admin + CSRF for mutations)
	admin := api.Group("/admin", handler.AuthMiddleware(authSvc), handler.AdminMiddleware(authSvc))
	admin.Get("/notice", noticeHandler.GetConfig)
	admin.Put("/notice", handler.CSRFMiddleware(), noticeHandler.UpdateConfig)
	admin.Delete("/notice", handler.CSRFMiddleware(), noticeHandler.ResetConfig)
	admin.Get("/notice/settings", noticeHandler.GetSettings)

	// Health check handler
	healthHandler := handler.NewHealthHandler(db)
	app.Get("/health", healthHandler.Liveness)
	app.Get("/health/ready", healthHandler.Readiness)

	// Metrics endpoint
	metricsHandler := handler.NewMetricsHandler()
	if cfg.Observability.MetricsEnabled {
		if cfg.IsProduction {
			app.Get("/metrics", handler.BearerTokenMiddleware(cfg.Observability.MetricsToken), metricsHandler.Handler())
		} else {
			app.Get("/metrics", metricsHandler.Handler())
		}
	} else {
		logger.Info().Msg("Metrics endpoint disabled")
	}

	// Keep the notice_active gauge current even when nothing is rendering.
	gaugeStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				handler.SetNoticeActive(noticeSvc.ShouldDisplay(time.Now(), models.PageContext{IsHomePage: true}))
			case <-gaugeStop:
				return
			}
		}
	}()
	handler.SetNoticeActive(noticeSvc.ShouldDisplay(time.Now(), models.PageContext{IsHomePage: true}))

	// Start server in goroutine
	go func() {
		addr := net.JoinHostPort(cfg.Server.BindAddress, cfg.Server.Port)
		logger.Info().
			Str("address", addr).
			Bool("metrics_enabled", cfg.Observability.MetricsEnabled).
			Msg("HTTP server listening")
		if err := app.Listen(addr); err != nil {
			logger.Error().Err(err).Msg("Server stopped")
		}
	}()

	// Graceful shutdown setup
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info().Msg("Stopping background jobs...")
	close(gaugeStop)
	authRateLimiter.Stop()

	logger.Info().Msg("Shutting down HTTP server...")
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("Error during shutdown")
	}

	logger.Info().Msg("Closing database connection...")
	if err := db.Close(); err != nil {
		logger.Error().Err(err).Msg("Error closing database")
	}

	logger.Info().Msg("Server stopped gracefully")
}
