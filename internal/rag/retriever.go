package rag

import (
	"context"
	"fmt"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
)

// retriever maps a question to the most similar corpus chunks.
type retriever struct {
	embedder embedding.Embedder
	index    *vector.FlatIndex
	chunks   []*models.Chunk
}

// retrieve embeds the question once, searches the index, and returns the topK
// closest chunks with 1-based ranks. Engine state is not touched.
func (r *retriever) retrieve(ctx context.Context, question string, topK int) ([]*models.RetrievalResult, error) {
	queryEmbedding, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	hits, err := r.index.Search(ctx, queryEmbedding, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	results := make([]*models.RetrievalResult, len(hits))
	for i, hit := range hits {
		results[i] = &models.RetrievalResult{
			Chunk:          r.chunks[hit.Position],
			RelevanceScore: hit.Score,
			Rank:           i + 1,
		}
	}
	return results, nil
}
