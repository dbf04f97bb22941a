package utils

import "strings"

// IsEmpty reports whether s holds nothing but whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// OptionalField returns the trimmed value and whether it should be sent at all.
func OptionalField(s string) (string, bool) {
	if IsEmpty(s) {
		return "", false
	}
	return strings.TrimSpace(s), true
}
