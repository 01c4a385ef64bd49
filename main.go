package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notebook/config"
	"notebook/config/database"
	"notebook/internal/journal/repository"
	"notebook/internal/note/service"
	"notebook/pkg/logger"
	"notebook/router"
	"notebook/socket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info")
		logger.Sugar.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	// The journal is optional. Notes themselves always live in memory only.
	var journalRepo *repository.JournalRepository
	if cfg.DB.Enabled() {
		db, err := database.Connect(cfg.DB)
		if err != nil {
			logger.Sugar.Fatalf("Journal database unavailable: %v", err)
		}
		defer db.Close()

		journalRepo = repository.NewJournalRepository(db)
		if err := journalRepo.EnsureSchema(); err != nil {
			logger.Sugar.Fatalf("Could not prepare journal schema: %v", err)
		}
	} else {
		logger.Sugar.Info("No database configured, activity journal disabled")
	}

	hub := socket.NewHub()
	svc := service.NewNoteService(hub, service.NewJournal(journalRepo))
	hub.SetSnapshotSource(svc)
	go hub.Run()

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: router.Setup(svc, hub, router.Options{
			JWTSecret:     []byte(cfg.JWTSecret),
			AllowedOrigin: cfg.AllowedOrigin,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Sugar.Infof("Notebook backend listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar.Fatalf("HTTP server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Sugar.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar.Errorf("Graceful shutdown failed: %v", err)
	}
	hub.Stop()
}
