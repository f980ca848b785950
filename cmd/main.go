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

	"go.uber.org/zap"

	"sessionrecorder/backend/internal/api/handlers"
	"sessionrecorder/backend/internal/api/routes"
	"sessionrecorder/backend/internal/config"
	"sessionrecorder/backend/internal/recorder"
	"sessionrecorder/backend/internal/services"
	"sessionrecorder/backend/pkg/auth"
	"sessionrecorder/backend/pkg/database"
	"sessionrecorder/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Server.Mode); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()
	l := logger.L()

	// Initialize JWT
	auth.SetSecret(cfg.JWT.Secret)

	// Initialize database
	if err := database.InitDatabase(cfg); err != nil {
		l.Fatal("Failed to initialize database", zap.Error(err))
	}
	store := database.NewRecordingStore(database.DB)
	handlers.Init(cfg, store)

	// Initialize recording session manager
	recorder.Manager = recorder.NewRecorderManager(recorder.ChromeSourceFactory(recorder.ChromeOptions{
		Headless:     cfg.Chrome.HeadlessMode,
		PollInterval: time.Duration(cfg.Chrome.PollIntervalMs) * time.Millisecond,
	}), store)

	// Initialize retention service
	if err := services.InitRetention(store, cfg.Retention.Cron, cfg.Retention.Days); err != nil {
		l.Fatal("Failed to initialize retention service", zap.Error(err))
	}

	// Initialize session reaper
	reaper := services.NewReaperService(recorder.Manager, store, time.Duration(cfg.Chrome.ReapIntervalSec)*time.Second)
	reaper.Start()

	// Initialize router
	router := routes.SetupRoutes(cfg)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		l.Info("Server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Setup graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	l.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Warn("HTTP server shutdown", zap.Error(err))
	}

	reaper.Stop()

	// Stop live sessions so captured actions are persisted
	recorder.Manager.CleanupAll(ctx)

	if services.GlobalRetention != nil {
		services.GlobalRetention.Stop()
	}

	l.Info("Server shutdown complete")
}
