package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/quentin-h/embra/internal/config"
)

// NewModesCommand returns the modes subcommand.
func NewModesCommand() *cli.Command {
	return &cli.Command{
		Name:      "modes",
		Usage:     "List the modes of a config",
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

			names := make([]string, 0, len(cfg.Modes))
			for name := range cfg.Modes {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				mode := cfg.Modes[name]
				marker := "  "
				if name == cfg.DefaultMode {
					marker = "* "
				}
				fmt.Printf("%s%s (%s): %s\n", marker, name, mode.DisplayName, mode.Description)
			}
			return nil
		},
	}
}
