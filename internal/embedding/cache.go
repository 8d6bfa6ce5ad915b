package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedEmbedder wraps another Embedder with an LRU cache keyed by a hash of
// the text. Repeated questions and re-indexed chunks skip the model call.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachedEmbedder wraps inner with an LRU cache holding up to size entries.
func NewCachedEmbedder(inner Embedder, size int) (*CachedEmbedder, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

// Embed returns the cached embedding for text, calling the inner embedder on a miss.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if emb, ok := e.cache.Get(key); ok {
		return cloneVector(emb), nil
	}
	emb, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, cloneVector(emb))
	return emb, nil
}

// EmbedBatch embeds texts, serving cached entries and batching the misses
// through the inner embedder in their original order.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if emb, ok := e.cache.Get(cacheKey(text)); ok {
			embeddings[i] = cloneVector(emb)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return embeddings, nil
	}

	computed, err := e.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(computed) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d embeddings for %d texts", len(computed), len(missing))
	}
	for j, emb := range computed {
		e.cache.Add(cacheKey(missing[j]), cloneVector(emb))
		embeddings[missingIdx[j]] = emb
	}
	return embeddings, nil
}

// Dimensions returns the inner embedder's dimension.
func (e *CachedEmbedder) Dimensions() int {
	return e.inner.Dimensions()
}

// Close closes the inner embedder.
func (e *CachedEmbedder) Close() error {
	return e.inner.Close()
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// cloneVector copies an embedding so cached entries cannot be mutated by callers.
func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
