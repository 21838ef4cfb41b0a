package service

import (
	"math"
	"strings"
)

// Score bands used throughout: 100 is certain, [PartialMinScore,100)
// needs human confirmation, below PartialMinScore is rejected.
const (
	ScoreExact      = 100
	PartialMinScore = 70
)

// Ratio is the character-level Damerau-Levenshtein similarity of two
// strings as a 0..100 percentage. No case folding; callers decide.
func Ratio(a, b string) int {
	if a == "" && b == "" {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	d := damerauLevenshtein(a, b)
	m := len([]rune(a))
	if mb := len([]rune(b)); mb > m {
		m = mb
	}
	return int(math.Round(100 * (1 - float64(d)/float64(m))))
}

// TokenSortRatio scores two names independent of token order: both
// sides are lowercased, stripped to alphanumerics, token-sorted and
// compared as strings.
func TokenSortRatio(a, b string) int {
	return Ratio(tokenSort(processTokens(a)), tokenSort(processTokens(b)))
}

// ExactMatch returns the first candidate equal to name after
// whitespace normalization and case folding. Used for merchants, where
// no fuzziness is tolerated.
func ExactMatch(name string, candidates []string) (string, int) {
	in := strings.ToLower(Normalize(name))
	if in == "" {
		return "", 0
	}
	for _, c := range candidates {
		if strings.ToLower(Normalize(c)) == in {
			return c, ScoreExact
		}
	}
	return "", 0
}

// FuzzyMatch picks the single best candidate by token-sort ratio.
// Equal scores keep the first candidate encountered, so results are
// deterministic for a fixed candidate order. Returns ("", 0) when no
// candidate clears minScore or the input is empty.
func FuzzyMatch(name string, candidates []string, minScore int) (string, int) {
	in := Normalize(name)
	if in == "" {
		return "", 0
	}
	best, bestScore := "", -1
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		nc := Normalize(c)
		if nc == "" || seen[nc] {
			continue
		}
		seen[nc] = true
		if s := TokenSortRatio(in, nc); s > bestScore {
			best, bestScore = c, s
		}
	}
	if bestScore < 0 || bestScore < minScore {
		return "", 0
	}
	return best, bestScore
}
