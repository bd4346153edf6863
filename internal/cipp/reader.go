package cipp

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Row is one data row of the alert table.
type Row interface {
	// Text returns the raw row markup used for domain exclusion.
	Text() string
	// Fields returns the cell contents in column order.
	Fields() []string
}

// TableReader splits an alert body into data rows. The header row is never
// returned.
type TableReader interface {
	Rows(body string) ([]Row, error)
}

// Strategy names a TableReader implementation.
type Strategy string

const (
	// StrategyPattern locates rows and cells with non-greedy patterns. It is
	// the default and expects the fixed CIPP table shape.
	StrategyPattern Strategy = "pattern"
	// StrategyMarkup tokenizes the body as HTML and tolerates tag attributes
	// and letter case.
	StrategyMarkup Strategy = "markup"
)

// NewTableReader returns the reader for a strategy. An empty strategy selects
// StrategyPattern.
func NewTableReader(strategy Strategy) (TableReader, error) {
	switch strategy {
	case "", StrategyPattern:
		return PatternReader{}, nil
	case StrategyMarkup:
		return MarkupReader{}, nil
	default:
		return nil, fmt.Errorf("unknown table strategy %q (expected %q or %q)", strategy, StrategyPattern, StrategyMarkup)
	}
}

// PatternReader reads rows with the package row and cell patterns.
type PatternReader struct{}

// Rows returns every <tr>...</tr> span after the first, in document order.
func (PatternReader) Rows(body string) ([]Row, error) {
	matches := rowRegex.FindAllString(normalizeBody(body), -1)
	if len(matches) < 2 {
		return []Row{}, nil
	}

	rows := make([]Row, 0, len(matches)-1)
	for _, m := range matches[1:] {
		rows = append(rows, patternRow(m))
	}
	return rows, nil
}

type patternRow string

func (r patternRow) Text() string {
	return string(r)
}

func (r patternRow) Fields() []string {
	cells := cellRegex.FindAllString(string(r), -1)
	fields := make([]string, 0, len(cells))
	for _, cell := range cells {
		fields = append(fields, cellMarkerRegex.ReplaceAllString(cell, ""))
	}
	return fields
}

// MarkupReader reads rows by tokenizing the body as HTML. Tags may carry
// attributes and any letter case, and rows need no enclosing <table>. Row
// text and cell content are slices of the normalized source, so exclusion
// and formatting see exactly the bytes PatternReader would.
type MarkupReader struct{}

// Rows returns every <tr> element after the first, in document order. Rows
// and cells of tables nested inside a cell belong to that cell.
func (MarkupReader) Rows(body string) ([]Row, error) {
	src := normalizeBody(body)
	z := html.NewTokenizer(strings.NewReader(src))

	var (
		rows      []Row
		current   *markupRow
		rowStart  = -1
		cellStart = -1
		nested    int
		offset    int
	)

	closeCell := func(end int) {
		if cellStart >= 0 {
			current.fields = append(current.fields, src[cellStart:end])
			cellStart = -1
		}
	}
	closeRow := func(end int) {
		current.text = src[rowStart:end]
		rows = append(rows, *current)
		current, rowStart, nested = nil, -1, 0
	}

	for {
		tt := z.Next()
		start := offset
		offset += len(z.Raw())

		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, &ReadError{Message: "failed to tokenize HTML", Cause: err}
			}
			if len(rows) < 2 {
				return []Row{}, nil
			}
			return rows[1:], nil

		case html.StartTagToken:
			name, _ := z.TagName()
			switch {
			case current != nil && string(name) == "table":
				nested++
			case nested > 0:
			case string(name) == "tr":
				if current != nil {
					closeCell(start)
					closeRow(start)
				}
				current, rowStart = &markupRow{}, start
			case string(name) == "td" && current != nil:
				closeCell(start)
				cellStart = offset
			}

		case html.EndTagToken:
			if current == nil {
				continue
			}
			name, _ := z.TagName()
			switch {
			case string(name) == "table" && nested > 0:
				nested--
			case nested > 0:
			case string(name) == "td":
				closeCell(start)
			case string(name) == "tr":
				closeCell(start)
				closeRow(offset)
			}
		}
	}
}

type markupRow struct {
	text   string
	fields []string
}

func (r markupRow) Text() string {
	return r.text
}

func (r markupRow) Fields() []string {
	return append([]string(nil), r.fields...)
}
