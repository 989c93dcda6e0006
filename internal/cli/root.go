package cli

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/JonMunkholm/woudc-registry/internal/logging"
)

// New returns the ecsvctl command tree.
func New(version string) *cli.Command {
	return &cli.Command{
		Name:                  "ecsvctl",
		Usage:                 "Inspect the WOUDC table catalog and verify extended CSV files",
		Version:               version,
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "catalog",
				Usage:   "tables.yaml to use instead of the built-in definitions",
				Sources: cli.EnvVars("CATALOG_PATH"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "debug, info, warn or error",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "text or json",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			// Logs go to stderr so reports on stdout stay machine readable.
			slog.SetDefault(logging.New(cmd.Root().ErrWriter, cmd.String("log-level"), cmd.String("log-format")))
			return ctx, nil
		},
		Commands: []*cli.Command{
			verifyCmd(),
			ingestCmd(),
			catalogCmd(),
		},
	}
}
