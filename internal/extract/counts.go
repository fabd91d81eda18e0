// Package extract contains the pure text extractors: count and percent
// parsing, profile meta summaries, and label-anchored block extraction.
// Nothing in this package performs I/O.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var countRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)([KMB])?$`)

// suffix multipliers for abbreviated counts ("10K", "3.4M", "1.2B")
var countScale = map[string]float64{
	"":  1,
	"K": 1_000,
	"M": 1_000_000,
	"B": 1_000_000_000,
}

// ParseCount parses a human-formatted count like "12,345", "10K" or "3.4M"
// into an integer. The suffix is case-insensitive and the scaled value is
// rounded to the nearest integer. Empty strings, placeholder dashes and
// non-numeric text report ok=false.
func ParseCount(s string) (int64, bool) {
	t := strings.ToUpper(strings.TrimSpace(s))
	t = strings.ReplaceAll(t, ",", "")
	t = strings.ReplaceAll(t, " ", "")
	if t == "" || isPlaceholder(t) {
		return 0, false
	}

	m := countRe.FindStringSubmatch(t)
	if m == nil {
		return 0, false
	}

	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return int64(math.Round(num * countScale[m[2]])), true
}

// ParsePercent parses a percentage like "8.25%" or "8.25" into its float
// value. The result is not scaled by 100. Thousands separators are stripped.
func ParsePercent(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	t = strings.TrimSuffix(t, "%")
	t = strings.ReplaceAll(t, ",", "")
	t = strings.TrimSpace(t)
	if t == "" || isPlaceholder(t) {
		return 0, false
	}

	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// isPlaceholder reports whether the string is a "no data" dash used by stats
// pages ("—", "---", "-").
func isPlaceholder(s string) bool {
	for _, r := range s {
		if r != '-' && r != '–' && r != '—' {
			return false
		}
	}
	return len(s) > 0
}
