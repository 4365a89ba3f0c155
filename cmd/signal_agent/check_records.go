package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/signal-agent/internal/batch"
	"github.com/jonathan/signal-agent/internal/observability"
	"github.com/jonathan/signal-agent/internal/schemas"
)

var checkRecordsCommand = &cobra.Command{
	Use:   "check-records",
	Short: "Validate a JSONL output file against the record schema",
	RunE:  runCheckRecordsCmd,
}

var (
	checkRecordsIn     string
	checkRecordsSchema string
)

func init() {
	checkRecordsCommand.Flags().StringVarP(&checkRecordsIn, "in", "i", "", "Path to the JSONL file (required)")
	checkRecordsCommand.Flags().StringVar(&checkRecordsSchema, "schema", "", "JSON Schema file to check against instead of the record schema")
	_ = checkRecordsCommand.MarkFlagRequired("in")

	rootCmd.AddCommand(checkRecordsCommand)
}

func runCheckRecordsCmd(cmd *cobra.Command, _ []string) error {
	var schema *schemas.Validator
	if checkRecordsSchema != "" {
		var err error
		if schema, err = schemas.LoadFile(checkRecordsSchema); err != nil {
			return err
		}
	}

	f, err := os.Open(checkRecordsIn)
	if err != nil {
		return fmt.Errorf("failed to open records: %w", err)
	}
	defer f.Close()

	failures, checked, err := batch.CheckRecords(f, schema)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if len(failures) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%d records valid\n", checked)
		return nil
	}

	warnings := make([]string, 0, len(failures))
	for _, fail := range failures {
		warnings = append(warnings, fail.Error())
	}
	printer.PrintWarnings("INVALID RECORDS", warnings)
	return fmt.Errorf("%d of %d records failed validation", len(failures), checked)
}
