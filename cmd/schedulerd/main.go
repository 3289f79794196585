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

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"session-scheduling-backend/config"
	"session-scheduling-backend/internal/api"
	"session-scheduling-backend/internal/db"
	"session-scheduling-backend/internal/logging"
	"session-scheduling-backend/internal/notification"
	"session-scheduling-backend/internal/scheduling"
	"session-scheduling-backend/internal/store"
)

func main() {
	// A local .env may provide SCHEDULER_* overrides and CONFIG_PATH.
	envLoaded := godotenv.Load() == nil

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("configuration loaded", zap.String("path", configPath), zap.Bool("dotenv", envLoaded))

	gormDB, err := db.Init(&cfg.Database, logger.Named("db"))
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	engine := scheduling.NewEngine(appStore, appStore, logger)

	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	}

	switch {
	case !cfg.Reminders.Enabled:
		logger.Info("reminder delivery disabled")
	case webpushOptions == nil:
		logger.Warn("reminder delivery enabled but VAPID keys are missing; reminders will not be sent")
	default:
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions, logger.Named("push"))
		dispatcher := notification.NewDispatcher(appStore, pool, cfg.Reminders, logger.Named("reminders"))
		go dispatcher.Run(ctx)
	}

	router := api.NewRouter(engine, appStore, webpushOptions, cfg.Server, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping services")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("HTTP server Shutdown", zap.Error(err))
	}

	logger.Info("server gracefully stopped")
}
