package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/balu-dk/go-purifier-cms/config"
	"github.com/balu-dk/go-purifier-cms/internal/api"
	"github.com/balu-dk/go-purifier-cms/internal/clock"
	"github.com/balu-dk/go-purifier-cms/internal/db"
	"github.com/balu-dk/go-purifier-cms/internal/metrics"
	"github.com/balu-dk/go-purifier-cms/internal/service"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	// Setup logger
	cfg.SetupLogger()
	logrus.Info("Starting purifier back-office server")

	store, closeStore := openStore(cfg)
	defer closeStore()

	m := metrics.New()
	svc := service.New(cfg, store, m, clock.New())

	// Create API server
	apiServer := api.NewAPI(cfg, svc, m)

	// Start API server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.APIPort),
		Handler:           apiServer,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run the server in a goroutine
	go func() {
		logrus.Infof("Starting API server on port %d", cfg.APIPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start API server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for the shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Attempt to gracefully shut down the server
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}

// openStore connects the configured document store
func openStore(cfg *config.Config) (service.Store, func()) {
	if cfg.DBDriver == config.DriverMemory {
		logrus.Warn("Using in-memory store; data is lost on restart")
		store := db.NewMemoryStore()
		return store, store.Close
	}

	// Connect to database
	store, err := db.NewPostgresStore(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	if cfg.DBMigrate {
		if err := store.Migrate(); err != nil {
			store.Close()
			logrus.WithError(err).Fatal("Failed to apply migrations")
		}
	}
	return store, store.Close
}
