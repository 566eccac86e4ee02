package utils

import "strings"

// ParseList splits a comma-separated query value into trimmed non-empty items.
// Returns nil for empty or whitespace-only input.
func ParseList(s string) []string {
	var result []string
	for _, v := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
