package core

import "context"

// EmbeddingProvider turns texts into fixed-length vectors. Repeated calls on
// identical text must collapse to the same nearest neighbors, which is what
// lets embeddings be cached by content hash.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMProvider generates prose from a system and user prompt.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}
