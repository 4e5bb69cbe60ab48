package extraction_engine

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/markdave123-py/resumex/internal/core"
	"github.com/markdave123-py/resumex/internal/logger"
)

var _ core.TextExtractor = (*DocumentExtractor)(nil)

const docMimeType = "application/msword"

// Format is the document format chosen from a filename.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatText Format = "text"
)

// DocumentExtractor implements core.TextExtractor.
// PDFs are read page by page with ledongthuc/pdf, DOCX bodies are decoded from
// the package's main part, legacy .doc goes through sajari/docconv, and
// everything else is decoded as UTF-8.
type DocumentExtractor struct {
	log *zap.Logger
}

func NewDocumentExtractor(log *zap.Logger) *DocumentExtractor {
	return &DocumentExtractor{log: logger.OrNop(log).Named("extractor")}
}

// DetectFormat picks a format from the lowercased suffix after the last dot.
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filename)
	if i := strings.LastIndex(ext, "."); i >= 0 {
		ext = ext[i+1:]
	}
	switch ext {
	case "pdf":
		return FormatPDF
	case "docx", "doc":
		return FormatDOCX
	default:
		return FormatText
	}
}

// ExtractText returns the plain text of data. It never fails: unreadable input yields "".
func (e *DocumentExtractor) ExtractText(_ context.Context, data []byte, filename string) string {
	format := DetectFormat(filename)

	var (
		text string
		err  error
	)
	switch format {
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	default:
		text = decodeText(data)
	}
	if err != nil {
		e.log.Warn("extraction failed, continuing with empty text",
			zap.String("filename", filename), zap.String("format", string(format)), zap.Error(err))
		return ""
	}
	e.log.Debug("extracted text", zap.String("filename", filename),
		zap.String("format", string(format)), zap.Int("chars", len(text)))
	return text
}

// extractPDF joins the text of every page with newlines. A page whose text
// cannot be read contributes an empty string.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		pages = append(pages, pageText(r.Page(i)))
	}
	return strings.Join(pages, "\n"), nil
}

func pageText(p pdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	if p.V.IsNull() {
		return ""
	}
	t, err := p.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return t
}

// extractDOCX returns the body paragraphs of a Word document, one per line.
// OOXML packages are read from their main document part only, so headers,
// footers, tables and text boxes are left out. Legacy binary .doc files go
// through docconv, which needs the wvText tool installed.
func extractDOCX(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("docx reader panic: %v", r)
		}
	}()

	if bytes.HasPrefix(data, oleSignature) {
		return convertLegacyDoc(data)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	part, err := mainDocumentPart(zr)
	if err != nil {
		return "", err
	}
	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", part.Name, err)
	}
	defer rc.Close()
	return bodyParagraphs(rc)
}

var oleSignature = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}

func convertLegacyDoc(data []byte) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(data), docMimeType, false)
	if err != nil {
		return "", fmt.Errorf("docconv: %w", err)
	}
	if res.Error != "" {
		return "", fmt.Errorf("docconv: %s", res.Error)
	}
	return res.Body, nil
}

type contentTypes struct {
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

// mainDocumentPart finds the part [Content_Types].xml declares as the
// document body, falling back to word/document.xml.
func mainDocumentPart(zr *zip.Reader) (*zip.File, error) {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	name := "word/document.xml"
	if ct, ok := files["[Content_Types].xml"]; ok {
		if rc, err := ct.Open(); err == nil {
			var types contentTypes
			if xml.NewDecoder(rc).Decode(&types) == nil {
				for _, o := range types.Overrides {
					if strings.HasPrefix(o.ContentType, "application/vnd.openxmlformats-officedocument.wordprocessingml.document") &&
						strings.HasSuffix(o.ContentType, ".main+xml") {
						name = strings.TrimPrefix(o.PartName, "/")
						break
					}
				}
			}
			rc.Close()
		}
	}

	f, ok := files[name]
	if !ok {
		return nil, fmt.Errorf("docx main part %q missing", name)
	}
	return f, nil
}

// Subtrees whose text is not part of the paragraph's own runs.
var skippedDocxElements = map[string]bool{
	"drawing": true, "pict": true, "AlternateContent": true, "txbxContent": true, "del": true,
}

// bodyParagraphs decodes the paragraphs that are direct children of w:body.
// Within runs w:tab becomes "\t", text-wrapping breaks become "\n" and page
// or column breaks are dropped.
func bodyParagraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		stack  []string
		paras  []string
		cur    strings.Builder
		inPara bool
		inText bool
		skipAt int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode docx body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			stack = append(stack, name)
			if skipAt > 0 {
				continue
			}
			if skippedDocxElements[name] {
				skipAt = len(stack)
				continue
			}

			switch {
			case name == "p" && parent == "body":
				inPara = true
				cur.Reset()
			case !inPara || parent != "r":
			case name == "t":
				inText = true
			case name == "tab" || name == "ptab":
				cur.WriteByte('\t')
			case name == "cr":
				cur.WriteByte('\n')
			case name == "br":
				if breakType(t) == "" || breakType(t) == "textWrapping" {
					cur.WriteByte('\n')
				}
			case name == "noBreakHyphen":
				cur.WriteByte('-')
			}

		case xml.EndElement:
			depth := len(stack)
			if depth == 0 {
				continue
			}
			stack = stack[:depth-1]
			if skipAt > 0 {
				if depth == skipAt {
					skipAt = 0
				}
				continue
			}
			switch {
			case t.Name.Local == "t":
				inText = false
			case t.Name.Local == "p" && inPara && len(stack) > 0 && stack[len(stack)-1] == "body":
				paras = append(paras, cur.String())
				inPara = false
			}

		case xml.CharData:
			if inPara && inText && skipAt == 0 {
				cur.Write(t)
			}
		}
	}
	return strings.Join(paras, "\n"), nil
}

func breakType(el xml.StartElement) string {
	for _, a := range el.Attr {
		if a.Name.Local == "type" {
			return a.Value
		}
	}
	return ""
}

// decodeText decodes data as UTF-8, dropping invalid byte sequences.
func decodeText(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}
