package extraction_engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/markdave123-py/resumex/internal/core"
	"github.com/markdave123-py/resumex/internal/logger"
)

const (
	nerInputChars       = 4000
	maxEntityNameTokens = 4
	maxFirstLineTokens  = 6
)

// NoopRecognizer finds no entities; the resolver then relies on the first-line heuristic.
type NoopRecognizer struct{}

var _ core.EntityRecognizer = NoopRecognizer{}

func (NoopRecognizer) Recognize(context.Context, string) ([]core.Entity, error) {
	return nil, nil
}

// NameResolver guesses the candidate's name from normalized text.
type NameResolver struct {
	recognizer core.EntityRecognizer
	log        *zap.Logger
}

// NewNameResolver wraps recognizer; a nil recognizer behaves like NoopRecognizer.
func NewNameResolver(recognizer core.EntityRecognizer, log *zap.Logger) *NameResolver {
	if recognizer == nil {
		recognizer = NoopRecognizer{}
	}
	return &NameResolver{recognizer: recognizer, log: logger.OrNop(log).Named("name")}
}

// Resolve returns the first PERSON entity of one to four tokens found in the
// opening part of text. Without one it falls back to the first line when that
// line has at most six tokens, and to "" otherwise.
func (r *NameResolver) Resolve(ctx context.Context, text string) string {
	ents, err := r.recognizer.Recognize(ctx, prefix(text, nerInputChars))
	if err != nil {
		r.log.Warn("entity recognition failed, using first-line fallback", zap.Error(err))
		ents = nil
	}
	for _, ent := range ents {
		if ent.Label != core.EntityLabelPerson {
			continue
		}
		if n := len(tokens(ent.Text)); n >= 1 && n <= maxEntityNameTokens {
			return trimSpace(ent.Text)
		}
	}

	lines := nonEmptyLines(text)
	if len(lines) == 0 {
		return ""
	}
	if len(tokens(lines[0])) <= maxFirstLineTokens {
		return lines[0]
	}
	return ""
}
