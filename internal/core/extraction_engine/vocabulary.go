package extraction_engine

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// DefaultSkills is the built-in skills vocabulary used when none is configured.
var DefaultSkills = []string{
	"python", "java", "c++", "sql", "postgresql", "flask", "django", "aws", "docker",
	"kubernetes", "spacy", "nlp", "react", "javascript", "node.js", "html", "css",
}

// Vocabulary is a read-only set of canonical skill names.
// It is built once and may be shared between concurrent parses.
type Vocabulary struct {
	entries []string
}

// NewVocabulary builds a vocabulary from entries, dropping exact duplicates and empty strings.
func NewVocabulary(entries ...string) *Vocabulary {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	sort.Strings(out)
	return &Vocabulary{entries: out}
}

// DefaultVocabulary returns a vocabulary over DefaultSkills.
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(DefaultSkills...)
}

// LoadVocabulary reads one skill per line from path. Blank lines and lines
// starting with '#' are ignored.
func LoadVocabulary(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open skills file: %w", err)
	}
	defer f.Close()

	var entries []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read skills file: %w", err)
	}
	return NewVocabulary(entries...), nil
}

// Entries returns a copy of the vocabulary, sorted.
func (v *Vocabulary) Entries() []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v.entries))
	copy(out, v.entries)
	return out
}

// Len reports the number of distinct entries.
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.entries)
}
