package parser

import (
	"strings"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"golang.org/x/text/width"
)

// Matcher applies a KeywordTable to header and row labels.
//
// Labels and keywords are width-folded and lower-cased before comparison.
// Keywords made of ASCII characters must start at a word boundary, so
// "sum" matches "Sum of ETFs" but not "Consumer"; other keywords (CJK tag
// words) match as plain substrings.
type Matcher struct {
	headers    []string
	roles      []compiledRule
	aggregates []string
}

type compiledRule struct {
	role   models.Role
	groups [][]string
}

// NewMatcher compiles a keyword table.
func NewMatcher(table models.KeywordTable) *Matcher {
	m := &Matcher{
		headers:    foldAll(table.Headers),
		aggregates: foldAll(table.Aggregates),
	}
	for _, rule := range table.Roles {
		cr := compiledRule{role: rule.Role}
		for _, group := range rule.Match {
			if folded := foldAll(group); len(folded) > 0 {
				cr.groups = append(cr.groups, folded)
			}
		}
		m.roles = append(m.roles, cr)
	}
	return m
}

// IsHeaderLabel reports whether a name-column label tags a section header.
func (m *Matcher) IsHeaderLabel(label string) bool {
	return containsAny(fold(label), m.headers)
}

// IsAggregate reports whether a row name marks a sum-of-all-instruments row.
func (m *Matcher) IsAggregate(name string) bool {
	return containsAny(fold(name), m.aggregates)
}

// Role classifies a section label. Classification is total: labels that
// match no rule are RoleOther.
func (m *Matcher) Role(label string) models.Role {
	text := fold(label)
	for _, rule := range m.roles {
		for _, group := range rule.groups {
			if containsAll(text, group) {
				return rule.role
			}
		}
	}
	return models.RoleOther
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(width.Fold.String(s)))
}

func foldAll(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if f := fold(kw); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if containsKeyword(text, kw) {
			return true
		}
	}
	return false
}

func containsAll(text string, keywords []string) bool {
	for _, kw := range keywords {
		if !containsKeyword(text, kw) {
			return false
		}
	}
	return true
}

func containsKeyword(text, kw string) bool {
	if !isASCII(kw) {
		return strings.Contains(text, kw)
	}
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], kw)
		if i < 0 {
			return false
		}
		pos := offset + i
		if pos == 0 || !isWordByte(text[pos-1]) {
			return true
		}
		offset = pos + 1
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
