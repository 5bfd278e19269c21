package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/quentin-h/embra/cmd/commands"
	"github.com/quentin-h/embra/internal/config"
	"github.com/quentin-h/embra/internal/secrets"
)

func main() {
	if err := config.LoadDotenv(config.DotenvPath()); err != nil {
		slog.Warn("failed to load .env", "error", err)
	}
	if err := secrets.DecryptEnv(secrets.KeyPath()); err != nil {
		slog.Warn("failed to decrypt env secrets", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd := commands.NewRootCommand()
	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
