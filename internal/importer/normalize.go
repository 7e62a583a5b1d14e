package importer

import (
	"strings"
	"unicode"
)

// NormalizeLabel cleans a header label for display and matching: line breaks
// become spaces, runs of whitespace collapse to one space, and the result is
// uppercased.
func NormalizeLabel(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// compact uppercases s and removes all whitespace. Labels, synonyms and
// keywords are compared in this form.
func compact(s string) string {
	return strings.ToUpper(stripSpace(s))
}

// NormalizeName is the catalog key for a product name: trimmed, internal
// whitespace removed, lowercased.
func NormalizeName(s string) string {
	return strings.ToLower(stripSpace(s))
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func compactAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = compact(s)
	}
	return out
}
