package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/quentin-h/embra/internal/config"
	"github.com/quentin-h/embra/internal/hooks"
	"github.com/quentin-h/embra/internal/plugins"

	"github.com/quentin-h/embra/internal/agent"
)

// NewValidateCommand returns the validate subcommand.
func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Load and validate a config without running it",
		ArgsUsage: "<config name or path>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			path, err := resolveConfigPath(cmd.Args().First())
			if err != nil {
				return err
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			if err := plugins.DefaultRegistry().Validate(cfg); err != nil {
				return err
			}
			if err := agent.ValidateHooks(cfg, hooks.DefaultRegistry()); err != nil {
				return err
			}

			fmt.Printf("%s: ok (%d modes, default %q)\n", cfg.ConfigName, len(cfg.Modes), cfg.DefaultMode)
			return nil
		},
	}
}
