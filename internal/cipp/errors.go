package cipp

import (
	"fmt"
	"strconv"
	"strings"
)

// ConstructionError reports that the caller-supplied domain exclusions could
// not be turned into a literal-matching rule. It is a caller input error.
type ConstructionError struct {
	Term    string
	Message string
	Cause   error
}

func (e *ConstructionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid input for generating dynamic regex pattern: %s: %v", e.Message, e.Cause)
	}
	if e.Term != "" {
		return fmt.Sprintf("invalid input for generating dynamic regex pattern: %s: %q", e.Message, e.Term)
	}
	return fmt.Sprintf("invalid input for generating dynamic regex pattern: %s", e.Message)
}

func (e *ConstructionError) Unwrap() error {
	return e.Cause
}

// ReadError represents a failure to read the table out of an alert body.
// Only the markup strategy can produce it.
type ReadError struct {
	Message string
	Cause   error
}

func (e *ReadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("read error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("read error: %s", e.Message)
}

func (e *ReadError) Unwrap() error {
	return e.Cause
}

// RowError describes a row that did not resolve to exactly PayloadFieldCount
// payload fields. It is collected into ParseOutcome.RowErrors, never returned.
type RowError struct {
	Fields []string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("something is wrong with data extracted from row, expected exactly %d useful fields, skipping this one in output: %s",
		PayloadFieldCount, quoteList(e.Fields))
}

// quoteList renders fields as ["a", "b"].
func quoteList(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = strconv.Quote(f)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
