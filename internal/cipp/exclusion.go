package cipp

import (
	"regexp"
	"strings"
)

// maxExclusionTermLength bounds a single domain exclusion term in bytes. It matches the
// longest possible DNS name.
const maxExclusionTermLength = 253

// reservedTermChars are pattern metacharacters a domain exclusion term may not
// contain. '.' is allowed because every domain has one; it is escaped like
// the rest of the term before compilation.
const reservedTermChars = `\()[]{}|*+?^$`

// ExclusionRule decides whether a raw row is dropped because it mentions one
// of the caller's domain exclusions. A zero rule excludes nothing.
type ExclusionRule struct {
	re    *regexp.Regexp
	terms []string
}

// NewExclusionRule compiles domain exclusion terms into a literal-matching
// rule. Every term is escaped before compilation. Terms that are empty, too
// long, or contain pattern metacharacters are rejected with a
// *ConstructionError instead of being silently matched.
func NewExclusionRule(terms []string) (*ExclusionRule, error) {
	if len(terms) == 0 {
		return &ExclusionRule{}, nil
	}

	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		if err := ValidateExclusionTerm(term); err != nil {
			return nil, err
		}
		quoted = append(quoted, regexp.QuoteMeta(term))
	}

	re, err := regexp.Compile("(" + strings.Join(quoted, "|") + ")")
	if err != nil {
		return nil, &ConstructionError{
			Message: "failed to compile domain exclusions",
			Cause:   err,
		}
	}

	return &ExclusionRule{re: re, terms: append([]string(nil), terms...)}, nil
}

// ValidateExclusionTerm checks that a single domain exclusion term can be used
// as literal text.
func ValidateExclusionTerm(term string) error {
	if term == "" {
		return &ConstructionError{Message: "domain exclusion must not be empty"}
	}
	if len(term) > maxExclusionTermLength {
		return &ConstructionError{Term: term, Message: "domain exclusion is longer than 253 bytes"}
	}
	if strings.ContainsAny(term, reservedTermChars) {
		return &ConstructionError{Term: term, Message: "domain exclusion contains a reserved pattern character"}
	}
	return nil
}

// Excludes reports whether the row text contains any of the rule's terms.
func (r *ExclusionRule) Excludes(rowText string) bool {
	if r == nil || r.re == nil {
		return false
	}
	return r.re.MatchString(rowText)
}

// Terms returns the terms the rule was built from.
func (r *ExclusionRule) Terms() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.terms...)
}
