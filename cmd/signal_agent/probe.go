package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/signal-agent/internal/config"
	"github.com/jonathan/signal-agent/internal/observability"
	"github.com/jonathan/signal-agent/internal/pipeline"
	"github.com/jonathan/signal-agent/internal/validation"
)

var probeCommand = &cobra.Command{
	Use:   "probe",
	Short: "Run the pipeline for one domain and print every stage",
	RunE:  runProbeCmd,
}

var (
	probeConfigPath string
	probeDomain     string
	probeCompany    string
	probeVertical   string
	probeVerbose    bool
)

func init() {
	probeCommand.Flags().StringVar(&probeConfigPath, "config", "configs/config.yml", "Path to config.yml")
	probeCommand.Flags().StringVarP(&probeDomain, "domain", "d", "", "Domain to probe (required)")
	probeCommand.Flags().StringVarP(&probeCompany, "company", "c", "", "Company name (defaults to the domain's first label)")
	probeCommand.Flags().StringVar(&probeVertical, "vertical", "", "Vertical phrase config to use")
	probeCommand.Flags().BoolVarP(&probeVerbose, "verbose", "v", false, "Print detailed debug information")

	_ = probeCommand.MarkFlagRequired("domain")

	rootCmd.AddCommand(probeCommand)
}

func runProbeCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(probeConfigPath)
	if err != nil {
		return err
	}
	vertical, err := config.LoadVertical(cfg.Pipeline.VerticalsDir, probeVertical)
	if err != nil {
		return err
	}

	rt, err := newRuntime(ctx, cfg, probeVerbose)
	if err != nil {
		return err
	}
	defer rt.Close()

	printer := observability.NewPrinter(cmd.OutOrStdout())
	opts := rt.pipelineOptions()
	opts.Phrases = vertical.Phrases
	opts.OnProgress = func(event pipeline.ProgressEvent) {
		if probeVerbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", event.Step, event.Message)
		}
	}

	state, err := pipeline.RunPipeline(ctx, pipeline.NewState(probeDomain, probeCompany, vertical.Name), opts)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	printer.PrintScrape(state.ScrapeResult)
	if state.ValidateResult != nil {
		printer.PrintValidate(state.ValidateResult)
	}
	printer.PrintCard(state.Card)
	printer.PrintEmail(state.Email)

	if state.Email != nil {
		var warnings []string
		for _, v := range validation.CheckDraft(*state.Email, opts.DraftRules) {
			warnings = append(warnings, fmt.Sprintf("%s (%s): %s", v.Type, v.Field, v.Details))
		}
		printer.PrintWarnings("STYLE", warnings)
	}
	return nil
}
