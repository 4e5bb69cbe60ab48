package extraction_engine

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MatchSkills returns the vocabulary entries that occur in text as whole words,
// compared case-insensitively. The result is sorted, deduplicated and keeps the
// vocabulary's casing. A nil vocabulary matches nothing.
func MatchSkills(text string, vocab *Vocabulary) []string {
	found := []string{}
	if vocab == nil || text == "" {
		return found
	}

	lower := strings.ToLower(text)
	for _, skill := range vocab.entries {
		if skill == "" {
			continue
		}
		if containsWord(lower, strings.ToLower(skill)) {
			found = append(found, skill)
		}
	}
	// entries are already unique and sorted; keep the guarantee explicit.
	sort.Strings(found)
	return found
}

// containsWord reports whether word occurs in text with no word character
// directly before or after it. "java" is not found in "javascript".
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for start := 0; start <= len(text)-len(word); {
		i := strings.Index(text[start:], word)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(word)

		before, _ := utf8.DecodeLastRuneInString(text[:i])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (i == 0 || !isWordRune(before)) && (end == len(text) || !isWordRune(after)) {
			return true
		}

		_, size := utf8.DecodeRuneInString(text[i:])
		start = i + size
	}
	return false
}

// isWordRune reports whether r is a word character: a letter, any numeric rune or '_'.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
