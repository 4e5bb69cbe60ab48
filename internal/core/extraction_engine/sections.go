package extraction_engine

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/markdave123-py/resumex/internal/models"
)

const (
	educationWindow  = 3
	experienceWindow = 4
)

var educationKeywords = []string{
	"university", "college", "school", "bachelor", "master", "b.sc", "m.sc",
	"bachelors", "masters", "phd", "ph.d", "mba",
}

var (
	educationSplitRe = regexp.MustCompile(`[-,–—]`)
	standaloneAtRe   = regexp.MustCompile(`(?i)[` + spaceClass + `]at[` + spaceClass + `]`)
	digitRunRe       = regexp.MustCompile(`\p{Nd}+`)
)

// FindEducation returns one entry per education anchor line, in order of appearance.
// Windows of neighbouring anchors overlap and are not deduplicated.
func FindEducation(text string) []models.Education {
	lines := nonEmptyLines(text)
	out := []models.Education{}
	for i, l := range lines {
		if !isEducationAnchor(l) {
			continue
		}
		window := lines[i:min(i+educationWindow, len(lines))]

		// Segments are cut on the joined span; the degree stops at the end of
		// the line it starts on.
		parts := educationSplitRe.Split(strings.Join(window, "\n"), -1)
		institution := trimSpace(strings.ReplaceAll(parts[0], "\n", " "))
		degree := ""
		if len(parts) > 1 {
			degree = strings.TrimLeftFunc(parts[1], isSpace)
			if j := strings.IndexByte(degree, '\n'); j >= 0 {
				degree = degree[:j]
			}
			degree = trimSpace(degree)
		}

		out = append(out, models.Education{
			Raw:         strings.Join(window, " "),
			Institution: institution,
			Degree:      degree,
		})
	}
	return out
}

func isEducationAnchor(line string) bool {
	low := strings.ToLower(line)
	for _, k := range educationKeywords {
		if strings.Contains(low, k) {
			return true
		}
	}
	return false
}

// FindExperience returns one entry per experience anchor line, in order of appearance.
// An anchor is a line holding the word "at" or a four-digit year.
func FindExperience(text string) []models.Experience {
	lines := nonEmptyLines(text)
	out := []models.Experience{}
	for i, l := range lines {
		at := standaloneAtRe.FindStringIndex(l)
		if at == nil && !hasYear(l) {
			continue
		}
		window := lines[i:min(i+experienceWindow, len(lines))]

		title, company := l, ""
		if at != nil {
			title = trimSpace(l[:at[0]])
			company = trimSpace(l[at[1]:])
		}

		out = append(out, models.Experience{
			Raw:     strings.Join(window, " "),
			Title:   title,
			Company: company,
		})
	}
	return out
}

// hasYear reports whether line holds a standalone run of exactly four
// decimal digits in any script.
func hasYear(line string) bool {
	for _, loc := range digitRunRe.FindAllStringIndex(line, -1) {
		if utf8.RuneCountInString(line[loc[0]:loc[1]]) != 4 {
			continue
		}
		before, _ := utf8.DecodeLastRuneInString(line[:loc[0]])
		after, _ := utf8.DecodeRuneInString(line[loc[1]:])
		if (loc[0] == 0 || !isWordRune(before)) && (loc[1] == len(line) || !isWordRune(after)) {
			return true
		}
	}
	return false
}
