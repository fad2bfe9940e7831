package util

import "strings"

// SplitList splits a separated list, trimming blanks and dropping empty items.
// Returns nil for an empty or all-blank input.
func SplitList(s, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
