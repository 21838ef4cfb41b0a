package service

import (
	"sort"
	"strings"
	"unicode"
)

// Normalize collapses internal whitespace and trims. Missing values
// arrive as "" from fileio and stay "".
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// processTokens lowercases, replaces non-alphanumeric runes with
// spaces and collapses whitespace, the preprocessing the token-sort
// ratio scores on.
func processTokens(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return Normalize(s)
}

// tokenSort: alphabetical token order, so "nut coconut oil" and
// "coconut oil nut" compare equal.
func tokenSort(s string) string {
	f := strings.Fields(s)
	sort.Strings(f)
	return strings.Join(f, " ")
}
