// Package similarity scores how alike two athlete names are on a 0-100 scale.
package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Ratio is 100 * (1 - editDistance / longerLength), rounded to the nearest
// integer. Two empty strings are identical.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	longer := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longer == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(d)/float64(longer))))
}

// TokenSortRatio compares names independent of token order, so
// "klaebo johannes" and "johannes klaebo" score 100.
func TokenSortRatio(a, b string) int {
	return Ratio(sortedTokens(a), sortedTokens(b))
}

func sortedTokens(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

type Match struct {
	Index int
	Score int
}

// Above returns every candidate scoring at least threshold against name,
// best first. Equal scores keep candidate order.
func Above(name string, candidates []string, threshold int) []Match {
	key := sortedTokens(name)
	out := make([]Match, 0, 4)
	for i, c := range candidates {
		score := Ratio(key, sortedTokens(c))
		if score >= threshold {
			out = append(out, Match{Index: i, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
