package main

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/zap"

	"entrykit/internal/app"
	"entrykit/internal/config"
	"entrykit/internal/logging"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log, "entrykit-server")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to start", zap.Error(err))
	}
	defer a.Close()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Starting server", zap.String("addr", addr))
	if err := a.Fiber().Listen(addr); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
