// Package similarity scores how alike two normalized strings are.
package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// TokenSortRatio returns a similarity ratio in [0, 100] between a and b.
// Tokens are sorted lexicographically before comparison, so token order
// never affects the score ("Velvet Underground" == "Underground Velvet").
// The ratio is symmetric and equals 100 when the sorted forms are equal,
// including for two empty strings; callers guard against empty input
// where an empty match must not count.
func TokenSortRatio(a, b string) int {
	sa := sortTokens(a)
	sb := sortTokens(b)
	if sa == sb {
		return 100
	}

	maxLen := utf8.RuneCountInString(sa)
	if n := utf8.RuneCountInString(sb); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 100
	}

	dist := levenshtein.ComputeDistance(sa, sb)
	return int(math.Round(100 * (1 - float64(dist)/float64(maxLen))))
}

// sortTokens splits on whitespace, sorts the tokens, and rejoins them
// with single spaces.
func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
