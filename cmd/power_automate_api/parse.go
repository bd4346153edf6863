package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/power-automate-api/internal/cipp"
	"github.com/jonathan/power-automate-api/internal/observability"
	"github.com/jonathan/power-automate-api/internal/types"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a CIPP alert e-mail body",
	Long:  "Reads an alert body from file (or stdin when no file is given) and prints one summary per data row. Row errors go to stderr.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runParse,
}

var (
	parseExclusions []string
	parseJSON       bool
	parseStrategy   string
	parseVerbose    bool
)

func init() {
	parseCmd.Flags().StringArrayVarP(&parseExclusions, "exclude", "e", nil, "Domain to exclude (repeatable)")
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Print the API response document instead of plain lines")
	parseCmd.Flags().StringVar(&parseStrategy, "strategy", string(cipp.StrategyPattern), "Table reading strategy: pattern or markup")
	parseCmd.Flags().BoolVarP(&parseVerbose, "verbose", "v", false, "Print a summary box to stderr")

	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	body, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	reader, err := cipp.NewTableReader(cipp.Strategy(parseStrategy))
	if err != nil {
		return err
	}

	outcome, err := cipp.NewParser(reader, nil).Parse(body, parseExclusions)
	if err != nil {
		return fmt.Errorf("failed to parse alert body: %w", err)
	}

	if parseVerbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintParseOutcome(outcome)
	}

	out := cmd.OutOrStdout()
	if parseJSON {
		return writeJSON(out, types.NewResponse(outcome.Messages, outcome.RowErrors))
	}

	for _, msg := range outcome.Messages {
		_, _ = fmt.Fprintln(out, msg)
	}
	for _, rowErr := range outcome.RowErrors {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), rowErr)
	}
	return nil
}

// readInput returns the contents of the named file, or of stdin without one.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}
	return string(data), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal output to JSON: %w", err)
	}
	return nil
}
