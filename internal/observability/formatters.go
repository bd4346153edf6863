// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/power-automate-api/internal/cipp"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// PrintParseOutcome outputs a summary of a parsed alert body.
func (p *Printer) PrintParseOutcome(outcome *cipp.ParseOutcome) {
	if outcome == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Messages:   %d\n", len(outcome.Messages)))
	sb.WriteString(fmt.Sprintf("Row errors: %d\n", len(outcome.RowErrors)))
	sb.WriteString(fmt.Sprintf("Excluded:   %d\n", outcome.Excluded))

	if len(outcome.Messages) > 0 {
		sb.WriteString("\n")
		writeList(&sb, outcome.Messages, "messages")
	}

	if len(outcome.RowErrors) > 0 {
		sb.WriteString("\nRow errors:\n")
		writeList(&sb, outcome.RowErrors, "row errors")
	}

	p.printBox("PARSED ALERT BODY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFilterResult outputs how many inputs survived the exclusion filter.
func (p *Printer) PrintFilterResult(total int, kept []string, exclusions []string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Input:      %d\n", total))
	sb.WriteString(fmt.Sprintf("Kept:       %d\n", len(kept)))
	sb.WriteString(fmt.Sprintf("Dropped:    %d\n", total-len(kept)))

	if len(exclusions) > 0 {
		sb.WriteString("\nExclusions:\n")
		writeList(&sb, exclusions, "exclusions")
	}

	p.printBox("EXCLUSION FILTER", strings.TrimSuffix(sb.String(), "\n"))
}

func writeList(sb *strings.Builder, items []string, noun string) {
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more %s\n", len(items)-maxItemsToShow, noun))
	}
}
