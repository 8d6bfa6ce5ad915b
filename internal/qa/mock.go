package qa

import (
	"context"
	"errors"
	"strings"

	"github.com/hyperjump/kotae/internal/embedding"
)

// MockProvider answers by picking the passage sentence that shares the most
// words with the question. Deterministic, so tests can assert on exact answers
// without a model file.
type MockProvider struct{}

// NewMockProvider returns a word-overlap reader.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Answer returns the passage sentence with the highest question-word overlap.
// The score is the fraction of distinct question words found in that sentence.
func (p *MockProvider) Answer(ctx context.Context, question, passage string) (Span, error) {
	sentences := splitSentences(passage)
	if len(sentences) == 0 {
		return Span{}, errors.New("passage is empty")
	}

	questionWords := make(map[string]struct{})
	for _, w := range embedding.WordsOf(question) {
		questionWords[w] = struct{}{}
	}

	best := ""
	bestOverlap := -1
	for _, sentence := range sentences {
		seen := make(map[string]struct{})
		for _, w := range embedding.WordsOf(sentence) {
			if _, ok := questionWords[w]; ok {
				seen[w] = struct{}{}
			}
		}
		if len(seen) > bestOverlap {
			bestOverlap = len(seen)
			best = sentence
		}
	}

	score := 0.0
	if len(questionWords) > 0 {
		score = float64(bestOverlap) / float64(len(questionWords))
	}
	return Span{Text: best, Score: score}, nil
}

// Close is a no-op for MockProvider.
func (p *MockProvider) Close() error {
	return nil
}

// splitSentences splits text on sentence punctuation and newlines, returning
// trimmed non-empty pieces.
func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	var sentences []string
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// FailingProvider always returns its configured error so callers' degraded
// paths can be exercised.
type FailingProvider struct {
	Err error
}

func (p *FailingProvider) Answer(ctx context.Context, question, passage string) (Span, error) {
	return Span{}, p.Err
}

func (p *FailingProvider) Close() error { return nil }
