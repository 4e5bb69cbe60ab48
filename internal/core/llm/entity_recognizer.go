package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/markdave123-py/resumex/internal/core"
)

const nerSystemPrompt = `You are a named-entity recognizer for résumés.
Return a JSON array of objects {"text": string, "label": string} for every entity in the user text,
in order of appearance. Use the labels PERSON, ORG, GPE, DATE. Copy entity text verbatim.
Return [] when there are none. Output JSON only.`

// EntityRecognizer implements core.EntityRecognizer on top of an LLM.
// Each call is bounded by timeout so parsing stays effectively synchronous.
type EntityRecognizer struct {
	llm     core.LLMProvider
	timeout time.Duration
}

var _ core.EntityRecognizer = (*EntityRecognizer)(nil)

func NewEntityRecognizer(llm core.LLMProvider, timeout time.Duration) *EntityRecognizer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EntityRecognizer{llm: llm, timeout: timeout}
}

type entityJSON struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Recognize returns the model's entities for text, labels upper-cased.
func (r *EntityRecognizer) Recognize(ctx context.Context, text string) ([]core.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.llm.Generate(callCtx, nerSystemPrompt, text)
	if err != nil {
		return nil, fmt.Errorf("recognize entities: %w", err)
	}
	return parseEntities(raw)
}

// parseEntities decodes the model output, tolerating a fenced code block around the JSON.
func parseEntities(raw string) ([]core.Entity, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var items []entityJSON
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}

	out := make([]core.Entity, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Text) == "" {
			continue
		}
		out = append(out, core.Entity{Text: it.Text, Label: strings.ToUpper(strings.TrimSpace(it.Label))})
	}
	return out, nil
}
