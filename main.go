package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"newsletter/app"
	"newsletter/config"
	"newsletter/routes"
	"newsletter/utils"
	"newsletter/worker"
)

func main() {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		utils.InitLogger("info", "text").Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.AppConfig

	logger := utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	if err := utils.InitSentry(cfg.SentryDSN, cfg.Environment); err != nil {
		logger.WithError(err).Warn("Sentry initialization failed")
	}
	defer utils.FlushSentry()

	application, err := app.Open(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to start application: %v", err)
	}
	defer application.Close()

	server := fiber.New(fiber.Config{
		AppName:      "newsletter",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	routes.SetupRoutes(server, routes.Dependencies{
		Config:       cfg,
		Store:        application.Store,
		Subscription: application.Subscription,
		Recovery:     application.Recovery,
		Validator:    application.Validator,
		Inspector:    application.Inspector,
		Logger:       logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	revalidationWorker := worker.NewRevalidationWorker(
		application.Recovery,
		cfg.RevalidationInterval,
		logger.WithField("component", "revalidation"),
	)
	go revalidationWorker.Start(ctx)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down server...")
		cancel()
		if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	// Start server
	logger.Infof("🚀 Server starting on port %s", cfg.ServerPort)
	if err := server.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
