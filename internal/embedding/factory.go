package embedding

import (
	"fmt"

	"github.com/hyperjump/kotae/internal/config"
)

// NewEmbedder builds the embedder selected by cfg.Provider and wraps it with
// an LRU cache when cfg.CacheSize > 0. A provider that cannot start is an
// error, not a fallback: query vectors and corpus vectors must come from the
// same model or every similarity score is meaningless.
func NewEmbedder(cfg *config.EmbeddingConfig) (Embedder, error) {
	var (
		inner Embedder
		err   error
	)
	switch cfg.Provider {
	case "onnx":
		inner, err = NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
	case "openai":
		inner, err = NewOpenAIEmbedder(&cfg.OpenAI, cfg.Dimensions)
	case "mock":
		inner = NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s embedder: %w", cfg.Provider, err)
	}
	if cfg.CacheSize > 0 {
		return NewCachedEmbedder(inner, cfg.CacheSize)
	}
	return inner, nil
}
