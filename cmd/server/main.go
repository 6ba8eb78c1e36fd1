package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/postcycle/postcycle/internal/config"
	"github.com/postcycle/postcycle/internal/credentials"
	"github.com/postcycle/postcycle/internal/database"
	"github.com/postcycle/postcycle/internal/engagement"
	"github.com/postcycle/postcycle/internal/health"
	"github.com/postcycle/postcycle/internal/linkedin"
	"github.com/postcycle/postcycle/internal/models"
	"github.com/postcycle/postcycle/internal/scheduler"
	"github.com/postcycle/postcycle/internal/store"
)

func main() {
	cfg := config.Load()

	if err := models.InitEncryption(cfg.TokenEncryptionKey); err != nil {
		log.Fatalf("failed to initialize token encryption: %v", err)
	}

	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	if cfg.Env == "development" {
		if err := database.SeedDevData(db); err != nil {
			log.Printf("failed to seed dev data: %v", err)
		}
	}

	logger := scheduler.NewLogger(cfg.LogLevel, cfg.LogFormat)

	// Explicit construction: every component receives its collaborators,
	// nothing reaches for a global.
	st := store.New(db)
	client := linkedin.NewClient(cfg.LinkedInClientID, cfg.LinkedInClientSecret, cfg.LinkedInRedirectURL)
	manager := credentials.NewManager(st, client, logger)
	analyzer := engagement.NewAnalyzer(st, logger)
	selector := engagement.NewSelector(st, logger)
	engine := scheduler.NewEngine(st, manager, client, selector, analyzer, logger)

	recorder, err := scheduler.NewLastRunRecorder(cfg.RedisURL, logger)
	if err != nil {
		log.Fatalf("failed to create last-run recorder: %v", err)
	}
	defer recorder.Close()

	stopScheduler, err := scheduler.StartScheduler(cfg)
	if err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer stopScheduler()

	if cfg.RunMode == "worker" {
		// Standalone worker mode: no HTTP surface, Run blocks until a
		// shutdown signal.
		if err := scheduler.Run(cfg, engine, recorder); err != nil {
			log.Fatalf("worker exited: %v", err)
		}
		return
	}

	stopWorker, err := scheduler.Start(cfg, engine, recorder)
	if err != nil {
		log.Fatalf("failed to start worker: %v", err)
	}
	defer stopWorker()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Handler)
	mux.Handle("GET /health/scheduler", health.SchedulerHandler(recorder))

	httpServer := &http.Server{Addr: ":" + cfg.Port, Handler: mux}
	go func() {
		log.Printf("health server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("health server error: %v", err)
		}
	}()
	defer httpServer.Close()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")
}
