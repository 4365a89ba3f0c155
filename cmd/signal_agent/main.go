// Package main provides the signal_agent command line: batch runs, single-domain
// probes, snippet scoring and record checks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "signal_agent",
	Short:         "Sales signal discovery for small-business websites",
	Long:          "signal_agent scrapes a prospect's website, validates the strongest sales signal into an evidence card, and drafts an outreach email when the card clears the confidence gate.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
