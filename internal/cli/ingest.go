package cli

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"

	"github.com/JonMunkholm/woudc-registry/internal/store"
)

func ingestCmd() *cli.Command {
	flags := append(verifyFlags(),
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "PostgreSQL connection string for the report store",
			Sources: cli.EnvVars("DATABASE_URL", "DB_URL"),
		},
		&cli.BoolFlag{
			Name:  "migrate",
			Value: true,
			Usage: "apply pending schema migrations first",
		},
	)

	return &cli.Command{
		Name:      "ingest",
		Usage:     "Verify extended CSV files and record every report in the report store",
		ArgsUsage: "PATH...",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			url := cmd.String("database-url")
			if url == "" {
				return errors.New("ingest needs a report store: set --database-url or DATABASE_URL")
			}

			st, err := store.Open(ctx, store.Config{
				URL:      url,
				MaxConns: concurrency(cmd),
				Migrate:  cmd.Bool("migrate"),
			})
			if err != nil {
				return err
			}
			defer st.Close()

			svc, err := newService(cmd, st)
			if err != nil {
				return err
			}
			return runBatch(ctx, cmd, svc, true)
		},
	}
}
