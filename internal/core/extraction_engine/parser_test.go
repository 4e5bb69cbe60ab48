package extraction_engine

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/resumex/internal/core"
	"github.com/markdave123-py/resumex/internal/models"
)

const sampleResume = `Jane   Q. Doe
jane.doe@example.com | +1 415 555 0134
Skills: Python, SQL, Docker, javascript

Experience
Software Engineer at Acme Corp
2019 - 2021
Built data pipelines

Education
Stanford University - BSc Computer Science
Graduated 2018
`

// panicRecognizer blows up to prove stage failures stay contained.
type panicRecognizer struct{}

func (panicRecognizer) Recognize(context.Context, string) ([]core.Entity, error) {
	panic("boom")
}

func TestParse_PlainTextResume(t *testing.T) {
	p := NewParser(nil, NoopRecognizer{}, nil, nil)

	rec := p.Parse(context.Background(), []byte(sampleResume), "jane.txt", nil)
	require.NotNil(t, rec)

	assert.Equal(t, Normalize(sampleResume), rec.FullText)
	assert.Equal(t, "Jane Q. Doe", rec.FullName)
	assert.Equal(t, []string{"jane.doe@example.com"}, rec.Emails)
	assert.Contains(t, rec.Phones, "+1 415 555 0134")
	assert.Equal(t, []string{"docker", "javascript", "python", "sql"}, rec.Skills)

	require.NotEmpty(t, rec.Education)
	assert.Equal(t, "Stanford University", rec.Education[0].Institution)
	assert.Equal(t, "BSc Computer Science", rec.Education[0].Degree)

	// The contact line carries a four-digit group, so it anchors an entry too.
	var companies []string
	for _, ex := range rec.Experience {
		if ex.Title == "Software Engineer" {
			companies = append(companies, ex.Company)
		}
	}
	assert.Equal(t, []string{"Acme Corp"}, companies)
}

func TestParse_VocabularyOverride(t *testing.T) {
	p := NewParser(nil, nil, nil, nil)

	rec := p.Parse(context.Background(), []byte(sampleResume), "jane.txt", NewVocabulary("Docker", "Kafka"))
	assert.Equal(t, []string{"Docker"}, rec.Skills)

	// The parser's own vocabulary is untouched by the override.
	assert.Equal(t, len(DefaultSkills), p.Vocabulary().Len())
}

func TestParse_Summary(t *testing.T) {
	p := NewParser(nil, nil, nil, nil)

	long := strings.Repeat("abcdefghi ", 60)
	rec := p.Parse(context.Background(), []byte(long), "x.txt", nil)
	assert.Equal(t, strings.TrimSpace(rec.FullText[:400]), rec.Summary)

	short := p.Parse(context.Background(), []byte("  short text  "), "x.txt", nil)
	assert.Equal(t, "short text", short.Summary)
}

func TestParse_NeverFails(t *testing.T) {
	p := NewParser(nil, NoopRecognizer{}, nil, nil)

	inputs := []struct {
		data     []byte
		filename string
	}{
		{nil, ""},
		{[]byte{0xff, 0xfe, 0x00}, "cv.pdf"},
		{[]byte("PK\x03\x04garbage"), "cv.docx"},
		{[]byte("\x00\x01\x02"), "cv.bin"},
		{docxWithoutBody(t), "cv.docx"},
	}
	for _, in := range inputs {
		var rec *models.ExtractionRecord
		require.NotPanics(t, func() {
			rec = p.Parse(context.Background(), in.data, in.filename, nil)
		}, in.filename)
		require.NotNil(t, rec, in.filename)
		assert.NotNil(t, rec.Emails)
		assert.NotNil(t, rec.Phones)
		assert.NotNil(t, rec.Skills)
		assert.NotNil(t, rec.Education)
		assert.NotNil(t, rec.Experience)
	}
}

// docxWithoutBody declares a main document part that the package lacks.
func docxWithoutBody(t *testing.T) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	f, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Override PartName="/word/document.xml" ContentType="` + wordMainContentType + `"/></Types>`))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestParse_DOCXHeaderAndTabs(t *testing.T) {
	p := NewParser(nil, NoopRecognizer{}, nil, nil)

	data := createTestDOCXParts(t,
		`<w:p><w:r><w:t>Jane</w:t><w:tab/><w:t>Doe</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>Software Engineer at Acme</w:t><w:tab/><w:t>2019 - 2021</w:t></w:r></w:p>`,
		map[string]string{"word/header1.xml": `<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
			`<w:p><w:r><w:t>Confidential</w:t></w:r></w:p></w:hdr>`},
	)

	rec := p.Parse(context.Background(), data, "cv.docx", nil)
	assert.Equal(t, "Jane Doe\nSoftware Engineer at Acme 2019 - 2021", rec.FullText)
	assert.Equal(t, "Jane Doe", rec.FullName)
	require.Len(t, rec.Experience, 1)
	assert.Equal(t, "Software Engineer", rec.Experience[0].Title)
	assert.Equal(t, "Acme 2019 - 2021", rec.Experience[0].Company)
}

func TestParse_StagePanicLeavesFieldEmpty(t *testing.T) {
	p := NewParser(nil, panicRecognizer{}, nil, nil)

	rec := p.Parse(context.Background(), []byte("Jane Doe\njane@example.com"), "cv.txt", nil)
	assert.Equal(t, "", rec.FullName)
	assert.Equal(t, []string{"jane@example.com"}, rec.Emails)
}

func TestParse_Deterministic(t *testing.T) {
	p := NewParser(nil, NoopRecognizer{}, nil, nil)
	want := p.Parse(context.Background(), []byte(sampleResume), "jane.txt", nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := p.Parse(context.Background(), []byte(sampleResume), "jane.txt", nil)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
