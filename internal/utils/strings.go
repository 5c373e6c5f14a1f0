package utils

import "strings"

// ParseCodes splits a comma-separated list of currency codes, trims and
// upper-cases each entry and drops empty values and repeats while keeping
// the first-seen order. Returns nil when nothing remains.
func ParseCodes(s string) []string {
	var result []string
	seen := make(map[string]bool)
	for _, v := range strings.Split(s, ",") {
		code := strings.ToUpper(strings.TrimSpace(v))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		result = append(result, code)
	}
	return result
}
