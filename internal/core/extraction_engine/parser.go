package extraction_engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/resumex/internal/core"
	"github.com/markdave123-py/resumex/internal/logger"
	"github.com/markdave123-py/resumex/internal/models"
)

const summaryChars = 400

// Parser turns résumé bytes into an ExtractionRecord.
//
// extractor:  format-specific text extraction.
// names:      NER-backed name resolution with a first-line fallback.
// vocab:      skills vocabulary used when a call does not supply one.
type Parser struct {
	extractor core.TextExtractor
	names     *NameResolver
	vocab     *Vocabulary
	log       *zap.Logger
}

// NewParser wires a parser. A nil vocab falls back to DefaultVocabulary.
func NewParser(extractor core.TextExtractor, recognizer core.EntityRecognizer, vocab *Vocabulary, log *zap.Logger) *Parser {
	log = logger.OrNop(log)
	if extractor == nil {
		extractor = NewDocumentExtractor(log)
	}
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Parser{
		extractor: extractor,
		names:     NewNameResolver(recognizer, log),
		vocab:     vocab,
		log:       log.Named("parser"),
	}
}

// Vocabulary returns the parser's default vocabulary.
func (p *Parser) Vocabulary() *Vocabulary {
	return p.vocab
}

// Parse extracts, normalizes and analyses one document. vocab overrides the
// parser's vocabulary for this call when non-nil. Parse never fails; absent
// data shows up as empty fields.
func (p *Parser) Parse(ctx context.Context, data []byte, filename string, vocab *Vocabulary) *models.ExtractionRecord {
	if vocab == nil {
		vocab = p.vocab
	}

	text := Normalize(p.extractor.ExtractText(ctx, data, filename))

	rec := &models.ExtractionRecord{
		FullText:   text,
		Emails:     []string{},
		Phones:     []string{},
		Skills:     []string{},
		Education:  []models.Education{},
		Experience: []models.Experience{},
		Summary:    trimSpace(prefix(text, summaryChars)),
	}

	// Every stage reads the same immutable text and writes its own field,
	// so Wait is the only synchronisation needed.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(p.stage("name", func() { rec.FullName = p.names.Resolve(gctx, text) }))
	g.Go(p.stage("emails", func() { rec.Emails = FindEmails(text) }))
	g.Go(p.stage("phones", func() { rec.Phones = FindPhones(text) }))
	g.Go(p.stage("skills", func() { rec.Skills = MatchSkills(text, vocab) }))
	g.Go(p.stage("education", func() { rec.Education = FindEducation(text) }))
	g.Go(p.stage("experience", func() { rec.Experience = FindExperience(text) }))

	if err := g.Wait(); err != nil {
		p.log.Warn("extraction stage failed", zap.String("filename", filename), zap.Error(err))
	}

	p.log.Debug("parsed document",
		zap.String("filename", filename),
		zap.String("full_name", rec.FullName),
		zap.Int("emails", len(rec.Emails)),
		zap.Int("phones", len(rec.Phones)),
		zap.Int("skills", len(rec.Skills)),
		zap.Int("education", len(rec.Education)),
		zap.Int("experience", len(rec.Experience)),
	)
	return rec
}

// stage adapts fn to errgroup, turning a panic into an error so the field
// keeps its empty default.
func (p *Parser) stage(name string, fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s stage panic: %v", name, r)
			}
		}()
		fn()
		return nil
	}
}
