package cipp

import (
	"regexp"
	"strings"
)

// The alert body is expected to hold a single table with a header row
// followed by data rows in the column order below. Rows and cells are
// located with non-greedy patterns rather than a markup parser, so cells must
// be plain <td> elements without attributes.
//
// Columns: Message, API, Tenant, Username, Severity.
// API, Username and Severity always carry CIPP's own labels ("Alerts",
// "CIPP", "Alert"); Message and Tenant are the payload.
const (
	rowPattern        = `<tr>[\s\S]*?</tr>`
	cellPattern       = `<td>[\s\S]*?</td>`
	cellMarkerPattern = `</?td>`

	// escapedLineBreak is the literal backslash-r backslash-n text that CIPP
	// leaves in the body in place of real line breaks.
	escapedLineBreak = `\r\n`

	// PayloadFieldCount is the number of fields a data row must keep after
	// administrative fields are dropped.
	PayloadFieldCount = 2
)

// AdministrativeLabels are the values CIPP writes into its non-payload
// columns. A field containing any of them is dropped.
var AdministrativeLabels = []string{"CIPP", "Alerts", "Alert"}

// AdministrativeFieldPattern matches fields that carry AdministrativeLabels.
var AdministrativeFieldPattern = "(" + strings.Join(AdministrativeLabels, "|") + ")"

var (
	rowRegex            = regexp.MustCompile(rowPattern)
	cellRegex           = regexp.MustCompile(cellPattern)
	cellMarkerRegex     = regexp.MustCompile(cellMarkerPattern)
	administrativeRegex = regexp.MustCompile(AdministrativeFieldPattern)
)

// normalizeBody strips the escaped line breaks from a raw alert body.
func normalizeBody(body string) string {
	return strings.ReplaceAll(body, escapedLineBreak, "")
}

// IsAdministrativeField reports whether a field value is one of CIPP's own
// labels rather than alert data.
func IsAdministrativeField(field string) bool {
	return administrativeRegex.MatchString(field)
}

// payloadFields returns the fields that are not administrative, in order.
func payloadFields(fields []string) []string {
	useful := make([]string, 0, len(fields))
	for _, field := range fields {
		if IsAdministrativeField(field) {
			continue
		}
		useful = append(useful, field)
	}
	return useful
}
