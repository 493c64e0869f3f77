// Package app builds the process-wide collaborators shared by the server and melodistctl.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"melodist/config"
	"melodist/internal/database"
	"melodist/internal/logging"
	"melodist/internal/metrics"
	"melodist/internal/policy"
	"melodist/internal/ratelimit"
	"melodist/internal/router"
	"melodist/internal/validate"
	"melodist/internal/ws"
	"melodist/pkg/catalog"
	"melodist/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *gorm.DB
	Policy   *policy.Engine
	Metrics  *metrics.Metrics
	Hub      *ws.Hub
	Storage  cloudinary.Storage
	Searcher catalog.Searcher
	Limiter  ratelimit.Limiter

	closers []func() error
}

// New opens the database and builds every shared dependency. Optional integrations
// without credentials fall back to disabled implementations.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	engine, err := policy.NewEngine(ctx, cfg.Admin.Emails)
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	if len(cfg.Admin.Emails) == 0 {
		logger.Warn("admin allow-list is empty; nobody can reach the admin console")
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Policy:   engine,
		Metrics:  metrics.New(),
		Hub:      ws.NewHub(),
		Searcher: catalog.NewSpotify(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret),
	}

	if cfg.Cloudinary.CloudName == "" {
		logger.Warn("cloudinary not configured; release uploads are disabled")
		a.Storage = cloudinary.Disabled()
	} else {
		a.Storage, err = cloudinary.New(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, cfg.Cloudinary.Folder)
		if err != nil {
			return nil, fmt.Errorf("cloudinary: %w", err)
		}
	}

	if cfg.Redis.Addr != "" {
		rl, err := ratelimit.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, nil)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = rl.Ping(pingCtx)
		cancel()
		if err != nil {
			_ = rl.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.Limiter = rl
		a.closers = append(a.closers, rl.Close)
		logger.Info("rate limiting via redis", slog.String("addr", cfg.Redis.Addr))
	} else {
		a.Limiter = ratelimit.NewMemory(ratelimit.MemoryConfig{})
	}
	return a, nil
}

// ReloadAdmins swaps the admin allow-list and closes live feeds whose holders no longer
// pass. HTTP routes pick the new list up on their next request.
func (a *App) ReloadAdmins(ctx context.Context, emails []string) ([]uint, error) {
	if err := a.Policy.SetAdmins(ctx, emails); err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	revoked := ws.RevokeFeeds(ctx, a.Hub, a.Policy, a.Logger)
	a.Logger.Info("admin allow-list reloaded", slog.Int("admins", len(emails)), slog.Int("feeds_revoked", len(revoked)))
	return revoked, nil
}

// Migrate brings the schema up to date.
func (a *App) Migrate() error {
	return database.AutoMigrate(a.DB)
}

// Engine builds the HTTP engine.
func (a *App) Engine() (*gin.Engine, error) {
	if err := validate.RegisterBindings(); err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}
	return router.Setup(router.Deps{
		Config:   a.Config,
		DB:       a.DB,
		Logger:   a.Logger,
		Policy:   a.Policy,
		Limiter:  a.Limiter,
		Metrics:  a.Metrics,
		Hub:      a.Hub,
		Storage:  a.Storage,
		Searcher: a.Searcher,
	}), nil
}

func (a *App) Close() error {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.Logger.Warn("shutdown close failed", slog.Any("error", err))
		}
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
