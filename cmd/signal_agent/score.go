package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/signal-agent/internal/fetch"
	"github.com/jonathan/signal-agent/internal/observability"
	"github.com/jonathan/signal-agent/internal/scoring"
	"github.com/jonathan/signal-agent/internal/types"
)

var scoreCommand = &cobra.Command{
	Use:   "score",
	Short: "Score a snippet the way evidence cards are scored",
	RunE:  runScoreCmd,
}

var (
	scoreSnippet   string
	scoreType      string
	scorePublished string
)

// scoreNow is the reference time for freshness
var scoreNow = time.Now

func init() {
	scoreCommand.Flags().StringVarP(&scoreSnippet, "snippet", "s", "", "Evidence snippet (required)")
	scoreCommand.Flags().StringVarP(&scoreType, "type", "t", "", "Signal type: expansion, scheduler or hiring (required)")
	scoreCommand.Flags().StringVarP(&scorePublished, "published", "p", "", "Publish date in any common format (optional)")

	_ = scoreCommand.MarkFlagRequired("snippet")
	_ = scoreCommand.MarkFlagRequired("type")

	rootCmd.AddCommand(scoreCommand)
}

func runScoreCmd(cmd *cobra.Command, _ []string) error {
	signalType := types.SignalType(scoreType)
	if !signalType.Valid() {
		return fmt.Errorf("unknown signal type %q (want one of %v)", scoreType, types.SignalTypes)
	}

	var published *time.Time
	if scorePublished != "" {
		published = fetch.ParseDate(scorePublished)
		if published == nil {
			return fmt.Errorf("could not parse publish date %q", scorePublished)
		}
	}

	weight := scoring.FreshnessWeight(published, scoreNow())
	confidence, reasons := scoring.Confidence(signalType, scoreSnippet, weight)
	explain := fmt.Sprintf("%s; freshness=%.2f", reasons, scoring.Round2(weight))

	observability.NewPrinter(cmd.OutOrStdout()).PrintScore(weight, confidence, explain)
	return nil
}
