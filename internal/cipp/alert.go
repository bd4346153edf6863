// Package cipp extracts alert summaries from CIPP notification e-mails.
//
// A CIPP alert body carries one HTML table with the columns Message, API,
// Tenant, Username and Severity. Each data row is reduced to its message and
// tenant and rendered as "{message} ({tenant})". Rows that mention one of the
// caller's domain exclusions are dropped before their cells are read. Rows that
// do not reduce to exactly two payload fields are reported as row errors and
// never abort the rest of the table.
//
// Parsing is stateless. A Parser may be shared between goroutines.
package cipp

import (
	"fmt"
	"log/slog"
)

// ParseOutcome holds the result of parsing one alert body. Messages and
// RowErrors are in row order; together they account for every row that was
// not excluded.
type ParseOutcome struct {
	Messages  []string
	RowErrors []string
	// Excluded is the number of rows dropped by domain exclusion.
	Excluded int
}

// Parser turns alert bodies into summaries using a TableReader.
type Parser struct {
	reader TableReader
	logger *slog.Logger
}

// NewParser creates a Parser. A nil reader selects PatternReader. A nil
// logger means whatever slog.Default is at the time of each Parse call.
func NewParser(reader TableReader, logger *slog.Logger) *Parser {
	if reader == nil {
		reader = PatternReader{}
	}
	return &Parser{reader: reader, logger: logger}
}

func (p *Parser) log() *slog.Logger {
	if p.logger == nil {
		return slog.Default()
	}
	return p.logger
}

var defaultParser = NewParser(PatternReader{}, nil)

// ParseAlertBody parses body with the pattern strategy.
func ParseAlertBody(body string, domainExclusions []string) (*ParseOutcome, error) {
	return defaultParser.Parse(body, domainExclusions)
}

// Parse extracts one summary per eligible row of body. The only error for
// well-formed input is a *ConstructionError for unusable domain exclusions.
func (p *Parser) Parse(body string, domainExclusions []string) (*ParseOutcome, error) {
	rule, err := NewExclusionRule(domainExclusions)
	if err != nil {
		return nil, err
	}

	rows, err := p.reader.Rows(body)
	if err != nil {
		return nil, err
	}

	outcome := &ParseOutcome{
		Messages:  []string{},
		RowErrors: []string{},
	}

	for _, row := range rows {
		if rule.Excludes(row.Text()) {
			outcome.Excluded++
			continue
		}

		message, err := formatRow(payloadFields(row.Fields()))
		if err != nil {
			outcome.RowErrors = append(outcome.RowErrors, err.Error())
			continue
		}
		outcome.Messages = append(outcome.Messages, message)
	}

	p.log().Debug("parsed alert body",
		"rows", len(rows),
		"excluded", outcome.Excluded,
		"messages", len(outcome.Messages),
		"row_errors", len(outcome.RowErrors),
	)

	return outcome, nil
}

// formatRow renders the payload fields of a row as "{message} ({tenant})".
func formatRow(fields []string) (string, error) {
	if len(fields) != PayloadFieldCount {
		return "", &RowError{Fields: fields}
	}
	return fmt.Sprintf("%s (%s)", fields[0], fields[1]), nil
}
