// Package textnorm holds the normalization rules applied to user input before validation.
package textnorm

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Key trims and lowercases a value that acts as a lookup key (slugs, emails).
func Key(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	// Casers keep state, so one is built per call.
	return cases.Lower(language.Und).String(trimmed)
}

// Len counts characters rather than bytes.
func Len(value string) int {
	return utf8.RuneCountInString(value)
}
