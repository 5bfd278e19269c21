// Package commands holds the embra CLI.
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/quentin-h/embra/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "embra",
		Usage: "Embodied agent runtime daemon",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewRunCommand(),
			NewModesCommand(),
			NewValidateCommand(),
			NewStatusCommand(),
			NewSecretCommand(),
		},
	}
}

var configExtensions = []string{".json5", ".json", ".yaml", ".yml"}

// resolveConfigPath turns a config argument into a file path. A bare name is
// looked up in the config directory with the known extensions; anything that
// looks like a path is used as-is.
func resolveConfigPath(arg string) (string, error) {
	if arg == "" {
		return "", fmt.Errorf("no config given")
	}

	if strings.ContainsRune(arg, os.PathSeparator) || strings.Contains(arg, ".") {
		if _, err := os.Stat(arg); err != nil {
			return "", fmt.Errorf("config %q: %w", arg, err)
		}
		return arg, nil
	}

	for _, ext := range configExtensions {
		candidate := filepath.Join(config.ConfigDir(), arg+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("config %q not found in %s", arg, config.ConfigDir())
}
