// Package scrape implements the aggregation pipeline: orchestrating external
// provider runs, gating them on recency, and ingesting results into the
// canonical posting store.
package scrape

import "strings"

// maxDescriptionLen bounds stored free-text descriptions.
const maxDescriptionLen = 5000

// TitleMatches returns true when a posting title plausibly belongs to the
// search term that produced it: the full term appears as a substring, or at
// least one whitespace-delimited token of the term appears, case-insensitively.
//
// The token fallback is deliberately loose — providers return fuzzy matches
// and a false positive costs less than a silently dropped posting.
func TitleMatches(title, term string) bool {
	t := strings.ToLower(title)
	q := strings.ToLower(strings.TrimSpace(term))
	if q == "" {
		return false
	}
	if strings.Contains(t, q) {
		return true
	}
	for _, token := range strings.Fields(q) {
		if strings.Contains(t, token) {
			return true
		}
	}
	return false
}

// TruncateDescription caps a description at maxDescriptionLen characters,
// never splitting a UTF-8 sequence. Silent: an oversized description is
// expected provider output, not an error.
func TruncateDescription(s string) string {
	if len(s) <= maxDescriptionLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxDescriptionLen {
		return s
	}
	return string(runes[:maxDescriptionLen])
}
