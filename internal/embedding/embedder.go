// Package embedding provides text embedding via ONNX, OpenAI, and caching.
package embedding

import "context"

// Embedder produces vector embeddings for text. The same embedder is used
// for corpus chunks and queries so their vectors are comparable.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
