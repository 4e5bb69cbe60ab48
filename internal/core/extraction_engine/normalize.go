package extraction_engine

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	horizontalSpaceRe = regexp.MustCompile(`[ \t]+`)
	// Any whitespace run (including blank lines) that ends in a newline.
	spaceBeforeNewlineRe = regexp.MustCompile(`[` + spaceClass + `]+\n`)
)

// Normalize collapses space/tab runs into one space, folds any whitespace
// ending in a newline into that newline and trims the result.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	text = horizontalSpaceRe.ReplaceAllString(text, " ")
	text = spaceBeforeNewlineRe.ReplaceAllString(text, "\n")
	return trimSpace(text)
}

// isSpace matches the characters treated as whitespace throughout the engine.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

// nonEmptyLines splits text into trimmed lines, dropping empty ones.
func nonEmptyLines(text string) []string {
	raw := strings.FieldsFunc(text, isLineBreak)
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = trimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// tokens splits s on whitespace.
func tokens(s string) []string {
	return strings.FieldsFunc(s, isSpace)
}

// prefix returns at most the first n characters (runes) of s.
func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func trimSpace(s string) string {
	return strings.TrimFunc(s, isSpace)
}
