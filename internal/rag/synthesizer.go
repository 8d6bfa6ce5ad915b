package rag

import (
	"context"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/qa"
	"github.com/hyperjump/kotae/pkg/utils"
)

const (
	// noResultsAnswer is returned when retrieval finds nothing; the QA
	// provider is not called at all in that case.
	noResultsAnswer = "I couldn't find relevant information in the QuickBuild documentation."
	// fallbackPrefix starts the degraded answer built when the QA provider fails.
	fallbackPrefix = "I couldn't generate a specific answer, but here's what I found in the documentation: "

	maxCombinedContextChars = 2000
	contextUsedChars        = 500
	fallbackContentChars    = 300
	fallbackConfidence      = 0.5
)

// synthesizer turns retrieved chunks into a final answer via the QA provider.
type synthesizer struct {
	provider qa.Provider
}

// synthesize builds the combined context, asks the provider for an answer
// span, and assembles the Answer. A provider failure degrades to a fallback
// answer quoting the top chunk; retrieval succeeding is enough to always
// produce some answer, so the failure never propagates.
func (s *synthesizer) synthesize(ctx context.Context, question string, results []*models.RetrievalResult) *models.Answer {
	if len(results) == 0 {
		return &models.Answer{
			Answer:     noResultsAnswer,
			Confidence: 0,
			Sources:    []models.Source{},
		}
	}

	combined := combineContext(results)
	sources := buildSources(results)

	span, err := s.provider.Answer(ctx, question, combined)
	if err != nil {
		content := results[0].Chunk.Content
		if len(content) > fallbackContentChars {
			content = content[:fallbackContentChars]
		}
		return &models.Answer{
			Answer:     fallbackPrefix + content + "...",
			Confidence: fallbackConfidence,
			Sources:    sources,
			Error:      err.Error(),
		}
	}

	return &models.Answer{
		Answer:      span.Text,
		Confidence:  span.Score,
		Sources:     sources,
		ContextUsed: utils.Truncate(combined, contextUsedChars),
	}
}

// combineContext concatenates "Section: {header}\n{content}" blocks in rank
// order. The cap keeps the provider's context bounded; truncating from the
// tail favors the highest-ranked chunks since they appear first.
func combineContext(results []*models.RetrievalResult) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = "Section: " + r.Chunk.SectionHeader + "\n" + r.Chunk.Content
	}
	return utils.Truncate(strings.Join(blocks, "\n\n"), maxCombinedContextChars)
}

// buildSources cites every retrieved chunk in rank order.
func buildSources(results []*models.RetrievalResult) []models.Source {
	sources := make([]models.Source, len(results))
	for i, r := range results {
		sources[i] = models.Source{
			Title:     r.Chunk.Title,
			Section:   r.Chunk.SectionHeader,
			URL:       r.Chunk.URL,
			Relevance: r.RelevanceScore,
		}
	}
	return sources
}
