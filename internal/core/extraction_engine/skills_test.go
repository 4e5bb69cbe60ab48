package extraction_engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchSkills_WordBoundaries(t *testing.T) {
	vocab := NewVocabulary("java")

	assert.Empty(t, MatchSkills("javascript developer", vocab))
	assert.Equal(t, []string{"java"}, MatchSkills("java developer", vocab))
	assert.Equal(t, []string{"java"}, MatchSkills("Senior JAVA, Spring", vocab))
}

func TestMatchSkills_SortedAndDeduplicated(t *testing.T) {
	vocab := NewVocabulary("sql", "Python", "sql")

	got := MatchSkills("python and sql, more sql and Python", vocab)
	assert.Equal(t, []string{"Python", "sql"}, got)
}

func TestMatchSkills_PunctuatedEntries(t *testing.T) {
	vocab := DefaultVocabulary()

	got := MatchSkills("Built APIs in Node.js and C++ on AWS; some HTML/CSS.", vocab)
	assert.Equal(t, []string{"aws", "c++", "css", "html", "node.js"}, got)
}

func TestMatchSkills_EmptyInputs(t *testing.T) {
	assert.Equal(t, []string{}, MatchSkills("", DefaultVocabulary()))
	assert.Equal(t, []string{}, MatchSkills("python", nil))
	assert.Equal(t, []string{}, MatchSkills("python", NewVocabulary("")))
}

func TestContainsWord(t *testing.T) {
	tests := []struct {
		text, word string
		want       bool
	}{
		{"java", "java", true},
		{"javascript java", "java", true},
		{"javascript", "java", false},
		{"my_java", "java", false},
		{"java8", "java", false},
		{"(java)", "java", true},
		{"", "java", false},
		{"java", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, containsWord(tt.text, tt.word), "%q in %q", tt.word, tt.text)
	}
}

func TestNewVocabulary(t *testing.T) {
	v := NewVocabulary("sql", "", "Go", "sql")
	assert.Equal(t, []string{"Go", "sql"}, v.Entries())
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, len(DefaultSkills), DefaultVocabulary().Len())
}

func TestLoadVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skills.txt")
	require.NoError(t, os.WriteFile(path, []byte("# backend\ngo\n\n  rust  \ngo\n"), 0o600))

	v, err := LoadVocabulary(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust"}, v.Entries())

	_, err = LoadVocabulary(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
