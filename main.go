package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/communitybot/database"
	"github.com/Ananth-NQI/communitybot/internal/config"
	"github.com/Ananth-NQI/communitybot/internal/handlers"
	"github.com/Ananth-NQI/communitybot/internal/jobs"
	"github.com/Ananth-NQI/communitybot/internal/logging"
	"github.com/Ananth-NQI/communitybot/internal/routes"
	"github.com/Ananth-NQI/communitybot/internal/services"
	"github.com/Ananth-NQI/communitybot/internal/storage"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	// Initialize storage
	storeOpts := []storage.Option{storage.WithSessionTTL(cfg.SessionTTL)}
	var store storage.Store
	storageType := "PostgreSQL"
	if cfg.UseMemoryStore {
		logger.Warn("using in-memory storage, data is lost on restart")
		store = storage.NewMemoryStore(storeOpts...)
		storageType = "memory"
	} else {
		db, err := database.Connect(cfg, logger)
		if err != nil {
			logger.Fatal("database unavailable", zap.Error(err))
		}
		store = storage.NewDatabaseStore(db, storeOpts...)
	}

	// Outbound replies
	var sender services.Sender
	twilioService, err := services.NewTwilioService(cfg, logger)
	if err != nil {
		logger.Warn("Twilio not configured, replies will only be logged", zap.Error(err))
		sender = services.NewLogSender(logger)
	} else {
		sender = twilioService
	}

	// Services
	sessionManager := services.NewSessionManager(store, logger)
	queryLogger := services.NewQueryLogger(store, logger)
	conversations := services.NewConversationService(sessionManager, store, queryLogger, logger)

	sweep := jobs.NewSessionSweepJob(sessionManager, cfg.SweepInterval, logger)
	if err := sweep.Start(); err != nil {
		logger.Fatal("failed to start session sweep", zap.Error(err))
	}

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Community Bot v" + version,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logging.RequestLogger(logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Admin-Key",
		AllowMethods: "GET, POST, PATCH, OPTIONS",
	}))

	routes.SetupRoutes(app, cfg, routes.Handlers{
		WhatsApp: handlers.NewWhatsAppHandler(conversations, sender, logger),
		Health:   handlers.NewHealthHandler(version, storageType, cfg.TwilioConfigured(), store, sessionManager, logger),
		Admin:    handlers.NewAdminHandler(store, logger),
	}, logger)

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("gracefully shutting down")
		if err := sweep.Stop(); err != nil {
			logger.Error("failed to stop session sweep", zap.Error(err))
		}
		_ = app.Shutdown()
	}()

	logger.Info("community bot starting",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("storage", storageType),
		zap.Bool("whatsapp_configured", cfg.TwilioConfigured()),
		zap.Duration("session_ttl", cfg.SessionTTL))

	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}

	// Let pending query log writes finish
	queryLogger.Wait()
}
