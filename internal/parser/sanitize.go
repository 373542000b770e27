package parser

import (
	"regexp"
	"strings"
)

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9 .\-_()]`)
	dotRuns     = regexp.MustCompile(`\.{2,}`)
)

// Sanitize makes input safe to use as a single path component. Everything
// outside [A-Za-z0-9 .-_()] is removed, so separators and NUL can never
// survive, and runs of dots collapse to one so ".." cannot appear.
func Sanitize(input string) string {
	safe := unsafeChars.ReplaceAllString(input, "")
	safe = dotRuns.ReplaceAllString(safe, ".")
	return strings.TrimSpace(safe)
}
