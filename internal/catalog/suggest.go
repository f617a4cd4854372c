package catalog

import (
	"sort"
	"strings"
)

// suggestion knobs for unknown-table lookups. Catalog schemas are small, so
// a plain Levenshtein scan over every table name is plenty.
const (
	maxSuggestDistance = 3
	maxSuggestions     = 3
)

// suggestTables returns the table names closest to a mistyped name, nearest
// first, for error messages. Matching ignores case; "photometry" should find
// "Photometry".
func suggestTables(name string, candidates []string) []string {
	type scored struct {
		name string
		dist int
	}
	target := strings.ToLower(name)

	var close []scored
	for _, c := range candidates {
		d := editDistance(target, strings.ToLower(c))
		if d <= maxSuggestDistance {
			close = append(close, scored{c, d})
		}
	}
	sort.SliceStable(close, func(i, j int) bool { return close[i].dist < close[j].dist })

	out := make([]string, 0, maxSuggestions)
	for i := 0; i < len(close) && i < maxSuggestions; i++ {
		out = append(out, close[i].name)
	}
	return out
}

// editDistance is the Levenshtein distance between two strings: how many
// single-character inserts, deletes, or substitutions turn one into the
// other.
func editDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
