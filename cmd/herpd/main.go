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

	"herptrack-backend/config"
	"herptrack-backend/internal/api"
	"herptrack-backend/internal/db"
	"herptrack-backend/internal/notification"
	"herptrack-backend/internal/sensorpush"
	"herptrack-backend/internal/store"
	"herptrack-backend/internal/weight"
)

func main() {
	logger := log.New(os.Stdout, "herptrack ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Auth.JWTSecret == "" {
		logger.Fatalf("auth.jwt_secret must be configured")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// The client and call gate are shared between the poller and interactive
	// requests so the upstream's one-call-per-minute budget is enforced
	// globally.
	spClient := sensorpush.NewClient(cfg.SensorPush.BaseURL, time.Duration(cfg.SensorPush.RequestTimeoutSeconds)*time.Second)
	spGate := sensorpush.NewCallGate(time.Duration(cfg.SensorPush.RateLimitSeconds) * time.Second)
	spAuth := sensorpush.NewAuthManager(appStore, spClient, spGate)
	spService := sensorpush.NewService(cfg, appStore, spAuth, spClient)
	go spService.Run(ctx)

	if cfg.Reminders.Enabled {
		pool := notification.NewWorkerPool(cfg.Reminders.WorkerPoolSize, appStore, &webpushOptions)
		scheduler := notification.NewScheduler(appStore, pool, time.Duration(cfg.Reminders.IntervalSeconds)*time.Second)
		go scheduler.Run(ctx)
		logger.Println("task reminder scheduler started")
	}

	reconciler := weight.NewReconciler(appStore)
	handler := api.NewHandler(appStore, reconciler, spService, &webpushOptions,
		[]byte(cfg.Auth.JWTSecret), time.Duration(cfg.Auth.SessionTTLMinutes)*time.Minute)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
