package extraction_engine

import (
	"regexp"
)

// spaceClass is the body of a character class matching every rune isSpace accepts.
// RE2's \s and \d are ASCII-only, so patterns spell out the Unicode sets.
const spaceClass = `\t\n\v\f\r\x{1c}-\x{1f}\x{85}\p{Z}`

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9.+_-]+@[a-zA-Z0-9._-]+\.[a-zA-Z]+`)

	// Deliberately lax: partial and overlapping number shapes are kept as matched.
	phoneRe = regexp.MustCompile(`(\+?\p{Nd}{1,3}[` + spaceClass + `-])?(?:\(?\p{Nd}{2,4}\)?[` + spaceClass + `-]?)?\p{Nd}{3,4}[` + spaceClass + `-]?\p{Nd}{3,4}`)
)

// FindEmails returns the distinct email-shaped substrings of text, case preserved,
// in order of first appearance.
func FindEmails(text string) []string {
	return distinctMatches(emailRe, text)
}

// FindPhones returns the distinct phone-shaped substrings of text exactly as matched.
// Values are not canonicalised: "+1 555 1234" and "555 1234" are different entries.
func FindPhones(text string) []string {
	return distinctMatches(phoneRe, text)
}

func distinctMatches(re *regexp.Regexp, text string) []string {
	matches := re.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
