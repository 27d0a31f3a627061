// Package main is the entry point for the chess lobby server.
//
// Configuration comes from the environment, optionally seeded from a .env
// file in the working directory. See internal/config for the variables.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sakif/chess-lobby/internal/config"
	"github.com/sakif/chess-lobby/internal/server"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to read .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	if cfg.DBDriver == config.DriverSQLite && cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until ctx is cancelled and closes the store on the way out.
	if err := srv.Start(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
