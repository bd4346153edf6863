package main

import (
	"bufio"
	"fmt"

	"github.com/jonathan/power-automate-api/internal/generic"
	"github.com/jonathan/power-automate-api/internal/observability"
	"github.com/jonathan/power-automate-api/internal/types"
	"github.com/spf13/cobra"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Drop lines containing any exclusion term",
	Long:  "Reads lines from stdin and prints those that contain none of the --exclude terms, in their original order.",
	Args:  cobra.NoArgs,
	RunE:  runFilter,
}

var (
	filterExclusions []string
	filterJSON       bool
	filterVerbose    bool
)

func init() {
	filterCmd.Flags().StringArrayVarP(&filterExclusions, "exclude", "e", nil, "Substring to exclude (repeatable)")
	filterCmd.Flags().BoolVar(&filterJSON, "json", false, "Print the API response document instead of plain lines")
	filterCmd.Flags().BoolVarP(&filterVerbose, "verbose", "v", false, "Print a summary box to stderr")

	rootCmd.AddCommand(filterCmd)
}

func runFilter(cmd *cobra.Command, _ []string) error {
	var lines []string
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	kept := generic.FilterByExclusions(lines, filterExclusions)

	if filterVerbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintFilterResult(len(lines), kept, filterExclusions)
	}

	out := cmd.OutOrStdout()
	if filterJSON {
		return writeJSON(out, types.NewResponse(kept, nil))
	}
	for _, line := range kept {
		_, _ = fmt.Fprintln(out, line)
	}
	return nil
}
