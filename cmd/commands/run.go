package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/quentin-h/embra/internal/agent"
	"github.com/quentin-h/embra/internal/config"
	"github.com/quentin-h/embra/internal/events"
	"github.com/quentin-h/embra/internal/gateway"
	"github.com/quentin-h/embra/internal/heartbeat"
)

// NewRunCommand returns the run subcommand.
func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run the agent with the given config",
		ArgsUsage: "<config name or path>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Gateway host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Gateway port to listen on",
			},
		},
		Action: runAgent,
	}
}

func runAgent(_ context.Context, cmd *cli.Command) error {
	settings, err := config.SettingsFromEnv()
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	if cmd.Bool("debug") || settings.Debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	path, err := resolveConfigPath(cmd.Args().First())
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if cmd.IsSet("host") {
		settings.GatewayHost = cmd.String("host")
	}
	if cmd.IsSet("port") {
		settings.GatewayPort = int(cmd.Int("port"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bus := events.NewBus(settings.EventBufferSize)
	defer bus.Close()

	a, err := agent.New(cfg, agent.Options{
		Bus:             bus,
		MemoryPath:      config.ModeMemoryPath(),
		LocationsPath:   config.LocationsPath(),
		InteractionsDir: config.InteractionsDir(),
	})
	if err != nil {
		return err
	}

	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Stop()

	if !settings.HeartbeatDisabled {
		if err := os.MkdirAll(config.EmbraPath(), 0o755); err == nil {
			hb := heartbeat.NewWriter(config.HeartbeatPath(), func() (string, string) {
				return cfg.ConfigName, a.Modes().Current()
			})
			hb.Start()
			defer hb.Stop()
		}
	}

	server := gateway.NewServer(cfg, bus, a.Modes(), a.Conversation(), settings.GatewayHost, settings.GatewayPort)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
