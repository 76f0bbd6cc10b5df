package mysqldump

import (
	"fmt"
	"regexp"
	"strings"
)

// namePattern is one include/exclude entry: either a literal object name
// or, when the configured entry is "/"-delimited, a compiled regexp.
type namePattern struct {
	entry   string
	literal string
	re      *regexp.Regexp
	matched bool
}

// NameMatcher evaluates include/exclude membership for catalog object
// names. An entry starting with "/" is treated as a "/"-delimited
// regular expression; anything else matches by exact equality.
type NameMatcher struct {
	patterns []*namePattern
}

// NewNameMatcher compiles a pattern list. Invalid regex entries are a
// ConfigError.
func NewNameMatcher(entries []string) (*NameMatcher, error) {
	m := &NameMatcher{}
	for _, entry := range entries {
		p := &namePattern{entry: entry}
		if len(entry) >= 2 && strings.HasPrefix(entry, "/") {
			expr := strings.TrimSuffix(entry[1:], "/")
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, &ConfigError{Field: entry, Message: fmt.Sprintf("invalid pattern: %v", err)}
			}
			p.re = re
		} else {
			p.literal = entry
		}
		m.patterns = append(m.patterns, p)
	}
	return m, nil
}

// Match reports whether name satisfies any pattern, and records which
// entries have matched so unresolved include entries can be reported
// after enumeration.
func (m *NameMatcher) Match(name string) bool {
	hit := false
	for _, p := range m.patterns {
		if p.re != nil {
			if p.re.MatchString(name) {
				p.matched = true
				hit = true
			}
		} else if p.literal == name {
			p.matched = true
			hit = true
		}
	}
	return hit
}

// Empty reports whether the matcher has no patterns at all.
func (m *NameMatcher) Empty() bool {
	return len(m.patterns) == 0
}

// Unmatched returns the configured entries that never matched any name.
func (m *NameMatcher) Unmatched() []string {
	var left []string
	for _, p := range m.patterns {
		if !p.matched {
			left = append(left, p.entry)
		}
	}
	return left
}
