package filter

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FilterSet holds lowercase keywords. A body matches when it contains any of them.
type FilterSet []string

// NewFilterSet normalises raw keywords: trimmed, lowercased, empty entries and
// duplicates dropped. An empty keyword would match every message.
func NewFilterSet(raw []string) FilterSet {
	seen := make(map[string]struct{}, len(raw))
	out := make(FilterSet, 0, len(raw))
	for _, k := range raw {
		k = lower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Matches reports whether any keyword occurs in the lowercased body.
func Matches(body string, filters FilterSet) bool {
	if len(filters) == 0 {
		return false
	}
	b := lower(body)
	for _, f := range filters {
		if strings.Contains(b, f) {
			return true
		}
	}
	return false
}

// Caser values carry state, so one is built per call.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}
