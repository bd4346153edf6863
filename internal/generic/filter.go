// Package generic provides string utilities that are not tied to any
// particular alert source.
package generic

import "strings"

// FilterByExclusions returns the strings that contain none of the exclusions
// as a literal substring. Relative order is preserved and the result is never nil.
func FilterByExclusions(strs []string, exclusions []string) []string {
	results := make([]string, 0, len(strs))

	for _, s := range strs {
		if containsAny(s, exclusions) {
			continue
		}
		results = append(results, s)
	}

	return results
}

// containsAny reports whether s contains any of the substrings, stopping at the first match.
func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
