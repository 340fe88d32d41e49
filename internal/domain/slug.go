package domain

import "strings"

// Slugify lowercases s and collapses whitespace runs into single hyphens.
func Slugify(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), "-")
}
