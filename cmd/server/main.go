package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"termyx/internal/app"
	"termyx/internal/platform/config"
	"termyx/internal/platform/logger"
)

// main loads configuration, wires the gate and runs it until SIGINT/SIGTERM.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log.Info("initializing termyx",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"database", cfg.DatabaseURL != "",
		"redis", cfg.Redis.URL != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway, err := app.New(ctx, cfg, log, app.WithMetrics(app.NewMetrics()))
	if err != nil {
		log.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	err = gateway.Run(ctx)
	gateway.Close()
	if err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
