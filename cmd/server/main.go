package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"melodist/config"
	"melodist/internal/app"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer a.Close()
	logger := a.Logger

	if err := a.Migrate(); err != nil {
		logger.Error("migrate failed", slog.Any("error", err))
		os.Exit(1)
	}
	engine, err := a.Engine()
	if err != nil {
		logger.Error("router setup failed", slog.Any("error", err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr), slog.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range quit {
		if sig != syscall.SIGHUP {
			break
		}
		reloadAdmins(ctx, a)
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}

// reloadAdmins re-reads configuration and applies a changed admin allow-list.
func reloadAdmins(ctx context.Context, a *app.App) {
	cfg, err := config.Load()
	if err != nil {
		a.Logger.Error("config reload failed", slog.Any("error", err))
		return
	}
	if _, err := a.ReloadAdmins(ctx, cfg.Admin.Emails); err != nil {
		a.Logger.Error("admin reload failed", slog.Any("error", err))
	}
}
