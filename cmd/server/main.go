// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/campus-market/internal/config"
	"github.com/javajoker/campus-market/internal/database"
	"github.com/javajoker/campus-market/internal/i18n"
	"github.com/javajoker/campus-market/internal/realtime"
	"github.com/javajoker/campus-market/internal/router"
)

const sessionSweepInterval = time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	setupLogging(cfg)

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	var workers sync.WaitGroup

	var (
		db      *gorm.DB
		changes *realtime.Broadcaster
	)
	if cfg.Database.Driver == "postgres" {
		// Initialize database
		db, err = database.Initialize(cfg.Database)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to initialize database")
		}
		defer database.Close(db)

		// Run database migrations
		if err := database.RunMigrations(db, cfg.Realtime.NotifyChannel); err != nil {
			logrus.WithError(err).Fatal("Failed to run migrations")
		}

		listener, err := realtime.NewPGListener(cfg.Database.DSN(), cfg.Realtime.NotifyChannel)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to start change listener")
		}
		changes = listener.Broadcaster
		workers.Add(1)
		go func() {
			defer workers.Done()
			listener.Run(ctx)
		}()
	} else {
		logrus.Warn("Using in-memory storage; data is lost on restart")
		changes = realtime.NewBroadcaster()
	}

	deps, err := router.NewDependencies(cfg, db, changes)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to wire dependencies")
	}

	workers.Add(2)
	go func() {
		defer workers.Done()
		deps.Sessions.Run(ctx, sessionSweepInterval)
	}()
	go func() {
		defer workers.Done()
		deps.Feed.Run(ctx)
	}()

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(deps)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":     srv.Addr,
			"database": cfg.Database.Driver,
			"storage":  cfg.Storage.Driver,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Ending the change broadcast lets open event streams return
	stop()
	changes.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}
	workers.Wait()

	logrus.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)
}
