package core

import (
	"context"
)

// Entity is one labeled span produced by a named-entity recognizer.
type Entity struct {
	Text  string
	Label string
}

// EntityLabelPerson is the label recognizers use for people.
const EntityLabelPerson = "PERSON"

// TextExtractor turns raw document bytes into plain text.
// The filename is only used to pick a format; implementations never fail, an
// unreadable document yields "".
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, filename string) string
}

// EntityRecognizer finds labeled spans (people, organisations, ...) in text.
// Implementations must be safe for concurrent use.
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}
