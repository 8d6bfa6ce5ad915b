// Package qa extracts answer spans from retrieved context with a reader model.
package qa

import "context"

// Span is an answer extracted from a context passage. Score is the model's
// confidence in [0, 1].
type Span struct {
	Text  string
	Score float64
}

// Provider answers a question from the given context text. An error means no
// answer could be produced at all; callers decide how to degrade.
type Provider interface {
	Answer(ctx context.Context, question, passage string) (Span, error)
	Close() error
}
