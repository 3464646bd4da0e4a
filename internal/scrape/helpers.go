package scrape

import (
	"strconv"
	"strings"
)

// normalizeSpace collapses multiple spaces into one and trims the string.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// parseLeadingInt extracts the first integer from text like "12 of 16 open".
func parseLeadingInt(s string) (int, bool) {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	v, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseLeadingFloat extracts the first decimal number from text like
// `14.5" new` or "base 102 in".
func parseLeadingFloat(s string) (float64, bool) {
	start := -1
	for i, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}
	end := start
	dot := false
	for end < len(s) {
		ch := s[end]
		if ch >= '0' && ch <= '9' {
			end++
			continue
		}
		if ch == '.' && !dot {
			dot = true
			end++
			continue
		}
		break
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[start:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
