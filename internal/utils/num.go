package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var rxKeepNums = regexp.MustCompile(`[^\d\.\-]`)

// ParseNumber parses spreadsheet numbers as DMS exports write them:
// grouping commas ("1,23,456.78" — Indian lakh grouping included),
// non-breaking spaces, currency junk and "(123.45)" negatives.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	// strip regular and non-breaking/narrow spaces, grouping commas
	repl := strings.NewReplacer(" ", "", " ", "", " ", "", " ", "", "\t", "", ",", "")
	s = repl.Replace(s)
	// keep only digits, dot, minus (currency symbols, percent signs)
	s = rxKeepNums.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}
