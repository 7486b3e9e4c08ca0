// Package app assembles the store, registry and HTTP routes from config.
package app

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"entrykit/internal/admin"
	"entrykit/internal/auth"
	"entrykit/internal/config"
	"entrykit/internal/engine"
	"entrykit/internal/metadata"
	"entrykit/internal/projectconfig"
	"entrykit/internal/store"
)

type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Store      *store.Store
	EntryTypes *store.EntryTypeRepository
	Entries    *store.EntryRepository
	Registry   *metadata.Registry
}

// New connects to the database, creates the system tables and loads the
// entry type registry.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := store.New(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	logger.Info("Database connected",
		zap.String("driver", cfg.Database.Driver), zap.String("name", cfg.Database.Name))

	if err := db.Bootstrap(ctx); err != nil {
		db.Close()
		return nil, err
	}

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Store:      db,
		EntryTypes: store.NewEntryTypeRepository(db, cfg.Validation.UniqueScope),
		Entries:    store.NewEntryRepository(db),
		Registry:   metadata.NewRegistry(),
	}
	if err := metadata.LoadAll(ctx, a.EntryTypes, a.Registry, logger); err != nil {
		logger.Warn("Failed to load entry types", zap.Error(err))
	}
	return a, nil
}

// Deps returns the collaborators entry types are bound to.
func (a *App) Deps() metadata.Deps {
	return metadata.Deps{
		Unique: a.EntryTypes,
		URLs: metadata.CPURLBuilder{
			BaseURL: a.Config.CP.BaseURL,
			Trigger: a.Config.CP.Trigger,
		},
		Scope: a.Config.Validation.UniqueScope,
	}
}

// Fiber builds the HTTP app with every route registered.
func (a *App) Fiber() *fiber.App {
	f := fiber.New(fiber.Config{
		ErrorHandler: engine.ErrorHandler(a.Logger),
	})
	f.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	f.Use(requestLogger(a.Logger))

	f.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authMW := auth.Authenticate(a.Config.JWTSecret)
	adminMW := auth.RequireAdmin()

	exporter := projectconfig.NewWriter(a.Config.ProjectConfig.Path, a.Logger)
	adminHandler := admin.NewHandler(a.EntryTypes, a.Registry, a.Deps(), exporter, a.Logger)
	admin.RegisterAdminRoutes(f, adminHandler, authMW, adminMW)

	engine.RegisterEntryRoutes(f, engine.NewHandler(a.Entries, a.Registry, a.Logger), authMW)
	return f
}

// Close releases the database connection.
func (a *App) Close() {
	a.Store.Close()
}

func requestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		logger.Debug("Request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()))
		return err
	}
}
