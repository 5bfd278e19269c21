package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/quentin-h/embra/internal/config"
	"github.com/quentin-h/embra/internal/heartbeat"
)

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show daemon status",
		Action: func(_ context.Context, _ *cli.Command) error {
			status, hb, err := heartbeat.Check(config.HeartbeatPath(), 2*time.Minute)
			if err != nil {
				return fmt.Errorf("check heartbeat: %w", err)
			}

			switch status {
			case heartbeat.StatusAlive:
				fmt.Printf("Daemon: ALIVE (PID %d, uptime %s, config %s, mode %s)\n", hb.PID, hb.Uptime, hb.Config, hb.Mode)
			case heartbeat.StatusStale:
				fmt.Printf("Daemon: STALE (PID %d, last heartbeat %s ago)\n",
					hb.PID, time.Since(hb.Timestamp).Truncate(time.Second))
			case heartbeat.StatusDead:
				fmt.Println("Daemon: NOT RUNNING")
			}

			return nil
		},
	}
}
