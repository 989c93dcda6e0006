// Command ecsvctl verifies WOUDC extended CSV files and inspects the table
// catalog from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/woudc-registry/internal/cli"
)

var version = "dev"

func main() {
	// A missing .env is fine; existing variables win.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.New(version).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ecsvctl:", err)
		stop()
		os.Exit(1)
	}
}
