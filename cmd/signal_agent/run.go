package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/signal-agent/internal/batch"
	"github.com/jonathan/signal-agent/internal/observability"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the signal pipeline over a CSV of domains",
	Long: `Reads prospects from a CSV (columns: domain, company, vertical), runs scrape -> validate -> outbound gate for each, and writes one JSON record per domain.

Configuration is loaded from a YAML file using --config. Command-line flags override config values.`,
	RunE: runBatchCmd,
}

var (
	runConfigPath  string
	runCSV         string
	runOut         string
	runVertical    string
	runConcurrency int
	runVerbose     bool
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "configs/config.yml", "Path to config.yml")
	runCommand.Flags().StringVar(&runCSV, "csv", "", "Path to the prospects CSV (required)")
	runCommand.Flags().StringVarP(&runOut, "out", "o", "data/cards_and_emails.jsonl", "Output JSONL path")
	runCommand.Flags().StringVar(&runVertical, "vertical", "", "Vertical for rows without one (selects configs/verticals/<vertical>.yml)")
	runCommand.Flags().IntVar(&runConcurrency, "concurrency", 0, "Domains processed in parallel (overrides pipeline.concurrency)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	_ = runCommand.MarkFlagRequired("csv")

	rootCmd.AddCommand(runCommand)
}

func runBatchCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(runConfigPath)
	if err != nil {
		return err
	}
	if runConcurrency > 0 {
		cfg.Pipeline.Concurrency = runConcurrency
	}

	rows, err := batch.ReadCSVFile(runCSV)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no domains found in %s", runCSV)
	}

	if dir := filepath.Dir(runOut); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	out, err := os.Create(runOut)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	rt, err := newRuntime(ctx, cfg, runVerbose)
	if err != nil {
		return err
	}
	defer rt.Close()

	runner := batch.NewRunner(batch.Options{
		Concurrency:     cfg.Pipeline.Concurrency,
		DomainTimeout:   cfg.Pipeline.DomainTimeout,
		VerticalsDir:    cfg.Pipeline.VerticalsDir,
		DefaultVertical: runVertical,
		Pipeline:        rt.pipelineOptions(),
		Logger:          rt.logger,
	})

	summary, err := runner.Run(ctx, rows, out)
	if err != nil {
		rt.logger.Error("batch stopped early", zap.Error(err))
		return err
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintRunSummary(summary.RunSummary(runOut))
	return nil
}
