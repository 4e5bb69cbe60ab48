package core

import "context"

// EmbeddingProvider turns candidate summaries into vectors for similarity search.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMProvider backs the model-driven entity recognizer.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}
