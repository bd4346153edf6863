package cipp

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadAlertBody(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "alert_body.html"))
	require.NoError(t, err)
	return string(data)
}

// buildTable renders a CIPP-shaped table with literal \r\n separators.
func buildTable(rows ...[]string) string {
	var sb strings.Builder
	sb.WriteString(`<table>\r\n<tbody>\r\n<tr>\r\n<th>Message</th>\r\n<th>API</th>\r\n<th>Tenant</th>\r\n<th>Username</th>\r\n<th>Severity</th>\r\n</tr>\r\n`)
	for _, row := range rows {
		sb.WriteString(`<tr>\r\n`)
		for _, cell := range row {
			sb.WriteString("<td>" + cell + `</td>\r\n`)
		}
		sb.WriteString(`</tr>\r\n`)
	}
	sb.WriteString(`</tbody>\r\n</table>`)
	return sb.String()
}

func cippRow(message, tenant string) []string {
	return []string{message, "Alerts", tenant, "CIPP", "Alert"}
}

var sampleMessages = []string{
	"MICROSOFT 365 BUSINESS STANDARD will expire in 141 days (dummydomaina.com.au)",
	"EXCHANGE ONLINE (PLAN 2) will expire in 358 days (dummydomainb.com.au)",
	"Microsoft Defender for Office 365 (Plan 1) will expire in 307 days (dummydomainc.com.au)",
}

func strategies(t *testing.T) map[Strategy]*Parser {
	t.Helper()
	parsers := make(map[Strategy]*Parser)
	for _, s := range []Strategy{StrategyPattern, StrategyMarkup} {
		reader, err := NewTableReader(s)
		require.NoError(t, err)
		parsers[s] = NewParser(reader, nil)
	}
	return parsers
}

func TestParseAlertBody_SampleEmail(t *testing.T) {
	body := loadAlertBody(t)

	for name, parser := range strategies(t) {
		t.Run(string(name), func(t *testing.T) {
			outcome, err := parser.Parse(body, nil)
			require.NoError(t, err)

			assert.Equal(t, sampleMessages, outcome.Messages)
			assert.Empty(t, outcome.RowErrors)
			assert.Zero(t, outcome.Excluded)
		})
	}
}

func TestParseAlertBody_SampleEmailWithExclusion(t *testing.T) {
	body := loadAlertBody(t)

	for name, parser := range strategies(t) {
		t.Run(string(name), func(t *testing.T) {
			outcome, err := parser.Parse(body, []string{"dummydomainc.com.au"})
			require.NoError(t, err)

			assert.Equal(t, sampleMessages[:2], outcome.Messages)
			assert.Empty(t, outcome.RowErrors)
			assert.Equal(t, 1, outcome.Excluded)
		})
	}
}

func TestParseAlertBody_ThreeRowsNoExclusions(t *testing.T) {
	body := buildTable(
		cippRow("License A expires", "tenantA"),
		cippRow("License B expires", "tenantB"),
		cippRow("License C expires", "tenantC"),
	)

	outcome, err := ParseAlertBody(body, []string{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"License A expires (tenantA)",
		"License B expires (tenantB)",
		"License C expires (tenantC)",
	}, outcome.Messages)
	assert.Empty(t, outcome.RowErrors)
}

func TestParseAlertBody_DomainExclusionDropsRow(t *testing.T) {
	body := buildTable(
		cippRow("License A expires", "tenantA"),
		cippRow("License B expires", "tenantB"),
		cippRow("License C expires", "tenantC"),
	)

	outcome, err := ParseAlertBody(body, []string{"tenantC"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"License A expires (tenantA)",
		"License B expires (tenantB)",
	}, outcome.Messages)
	assert.Empty(t, outcome.RowErrors)
	assert.Equal(t, 1, outcome.Excluded)
}

func TestParseAlertBody_MalformedRowIsContained(t *testing.T) {
	body := buildTable(
		cippRow("License A expires", "tenantA"),
		[]string{"Only a message", "Alerts", "CIPP", "Alert"},
		cippRow("License C expires", "tenantC"),
	)

	outcome, err := ParseAlertBody(body, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"License A expires (tenantA)",
		"License C expires (tenantC)",
	}, outcome.Messages)
	require.Len(t, outcome.RowErrors, 1)
	assert.Contains(t, outcome.RowErrors[0], "expected exactly 2 useful fields")
	assert.Contains(t, outcome.RowErrors[0], `["Only a message"]`)
}

func TestParseAlertBody_TooManyPayloadFields(t *testing.T) {
	body := buildTable([]string{"msg", "extra", "tenant", "CIPP", "Alert"})

	outcome, err := ParseAlertBody(body, nil)
	require.NoError(t, err)

	assert.Empty(t, outcome.Messages)
	require.Len(t, outcome.RowErrors, 1)
	assert.Contains(t, outcome.RowErrors[0], `["msg", "extra", "tenant"]`)
}

func TestParseAlertBody_ReservedCharacterIsConstructionError(t *testing.T) {
	body := buildTable(cippRow("License A expires", "a(b"))

	outcome, err := ParseAlertBody(body, []string{"a("})
	require.Error(t, err)
	assert.Nil(t, outcome)

	var constructionErr *ConstructionError
	require.True(t, errors.As(err, &constructionErr))
	assert.Equal(t, "a(", constructionErr.Term)
	assert.Contains(t, err.Error(), "invalid input for generating dynamic regex pattern")
}

func TestParseAlertBody_DotIsLiteral(t *testing.T) {
	body := buildTable(
		cippRow("License A expires", "tenant.com"),
		cippRow("License B expires", "tenantxcom"),
	)

	outcome, err := ParseAlertBody(body, []string{"tenant.com"})
	require.NoError(t, err)

	assert.Equal(t, []string{"License B expires (tenantxcom)"}, outcome.Messages)
}

func TestParseAlertBody_HeaderNeverEmitted(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "no table", body: "<p>nothing here</p>"},
		{name: "header only", body: buildTable()},
		{name: "one data row", body: buildTable(cippRow("m", "t"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := ParseAlertBody(tt.body, nil)
			require.NoError(t, err)

			for _, s := range append(outcome.Messages, outcome.RowErrors...) {
				assert.NotContains(t, s, "Message")
				assert.NotContains(t, s, "Severity")
			}
		})
	}
}

func TestParseAlertBody_NoDataRows(t *testing.T) {
	outcome, err := ParseAlertBody(buildTable(), nil)
	require.NoError(t, err)

	assert.NotNil(t, outcome.Messages)
	assert.NotNil(t, outcome.RowErrors)
	assert.Empty(t, outcome.Messages)
	assert.Empty(t, outcome.RowErrors)
}

func TestParseAlertBody_AllRowsExcluded(t *testing.T) {
	body := buildTable(
		cippRow("License A expires", "tenantA"),
		cippRow("License B expires", "tenantB"),
	)

	outcome, err := ParseAlertBody(body, []string{"tenantA", "tenantB"})
	require.NoError(t, err)

	assert.Empty(t, outcome.Messages)
	assert.Empty(t, outcome.RowErrors)
	assert.Equal(t, 2, outcome.Excluded)
}

func TestParseAlertBody_CountInvariant(t *testing.T) {
	rows := [][]string{
		cippRow("one", "tenantA"),
		{"broken", "Alerts"},
		cippRow("three", "tenantB"),
		cippRow("four", "tenantA"),
		{"x", "y", "z"},
	}
	body := buildTable(rows...)

	exclusionSets := [][]string{nil, {"tenantA"}, {"tenantB", "broken"}, {"nomatch"}}
	for _, exclusions := range exclusionSets {
		outcome, err := ParseAlertBody(body, exclusions)
		require.NoError(t, err)

		eligible := 0
		for _, row := range rows {
			if !containsAnyCell(row, exclusions) {
				eligible++
			}
		}
		assert.Equal(t, eligible, len(outcome.Messages)+len(outcome.RowErrors), "exclusions %v", exclusions)
		assert.Equal(t, len(rows)-eligible, outcome.Excluded, "exclusions %v", exclusions)
	}
}

func containsAnyCell(row []string, exclusions []string) bool {
	for _, cell := range row {
		for _, e := range exclusions {
			if strings.Contains(cell, e) {
				return true
			}
		}
	}
	return false
}

func TestParseAlertBody_NestedMarkupKept(t *testing.T) {
	body := buildTable(cippRow("<b>bold</b> expires", "tenantA"))

	outcome, err := ParseAlertBody(body, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"<b>bold</b> expires (tenantA)"}, outcome.Messages)
}

func TestParseAlertBody_ConcurrentCallsAreIndependent(t *testing.T) {
	body := buildTable(
		cippRow("License A expires", "tenantA"),
		cippRow("License B expires", "tenantB"),
	)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			exclusions := []string{"tenantA"}
			want := []string{"License B expires (tenantB)"}
			if i%2 == 0 {
				exclusions = nil
				want = []string{"License A expires (tenantA)", "License B expires (tenantB)"}
			}
			outcome, err := ParseAlertBody(body, exclusions)
			if assert.NoError(t, err) {
				assert.Equal(t, want, outcome.Messages)
			}
		}(i)
	}
	wg.Wait()
}

func TestMarkupReader_ToleratesCellAttributes(t *testing.T) {
	body := `<table><tr><th>Message</th></tr>` +
		`<tr><td class="msg">Disk full</td><td>Alerts</td><td style="x">tenantA</td><td>CIPP</td><td>Alert</td></tr></table>`

	patternOutcome, err := ParseAlertBody(body, nil)
	require.NoError(t, err)
	assert.Empty(t, patternOutcome.Messages)
	assert.Len(t, patternOutcome.RowErrors, 1)

	outcome, err := NewParser(MarkupReader{}, nil).Parse(body, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Disk full (tenantA)"}, outcome.Messages)
	assert.Empty(t, outcome.RowErrors)
}

func TestNewTableReader(t *testing.T) {
	reader, err := NewTableReader("")
	require.NoError(t, err)
	assert.IsType(t, PatternReader{}, reader)

	reader, err = NewTableReader(StrategyMarkup)
	require.NoError(t, err)
	assert.IsType(t, MarkupReader{}, reader)

	_, err = NewTableReader("xpath")
	assert.Error(t, err)
}

func TestParseAlertBody_LogsThroughCurrentDefault(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	_, err := ParseAlertBody(buildTable(cippRow("License A expires", "tenantA")), nil)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "parsed alert body")
	assert.Contains(t, buf.String(), "messages=1")
}
