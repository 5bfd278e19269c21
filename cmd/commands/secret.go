package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/quentin-h/embra/internal/config"
	"github.com/quentin-h/embra/internal/secrets"
)

// NewSecretCommand returns the secret subcommand.
func NewSecretCommand() *cli.Command {
	return &cli.Command{
		Name:  "secret",
		Usage: "Manage encrypted values in the embra .env file",
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Encrypt a value and store it as KEY in .env",
				ArgsUsage: "<KEY> <VALUE>",
				Action: func(_ context.Context, cmd *cli.Command) error {
					key := cmd.Args().Get(0)
					value := cmd.Args().Get(1)
					if key == "" || value == "" {
						return fmt.Errorf("usage: embra secret set <KEY> <VALUE>")
					}

					keyPath := secrets.KeyPath()
					if err := secrets.GenerateIdentity(keyPath); err != nil {
						return err
					}
					identity, err := secrets.LoadIdentity(keyPath)
					if err != nil {
						return err
					}

					blob, err := secrets.Encrypt(value, identity.Recipient())
					if err != nil {
						return err
					}
					if err := secrets.SetEntry(config.DotenvPath(), key, blob); err != nil {
						return err
					}

					fmt.Printf("%s stored (encrypted)\n", key)
					return nil
				},
			},
		},
	}
}
