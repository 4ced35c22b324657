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

	"github.com/azure/filedrop/internal/api"
	"github.com/azure/filedrop/internal/config"
	"github.com/azure/filedrop/internal/monitoring"
	"github.com/azure/filedrop/internal/notifications"
	"github.com/azure/filedrop/internal/scheduler"
	"github.com/azure/filedrop/internal/storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Infof("Starting filedrop with %s storage", cfg.StorageBackend)

	// The storage root must exist before any request is accepted
	backend, err := storage.New(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	notificationService := notifications.NewService(cfg)
	monitoringService := monitoring.NewService(cfg, backend, notificationService)

	// Sweep debris from a previous crash before serving
	if err := monitoringService.RunJanitor(); err != nil {
		logrus.Warnf("Initial temp file sweep failed: %v", err)
	}

	schedulerService := scheduler.NewService(cfg, monitoringService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	apiServer := api.NewServer(monitoringService, monitoringService, cfg.MaxUploadSize)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      apiServer.Router(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
