package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/pkg/utils"
)

// OpenAIEmbedder produces embeddings through the OpenAI embeddings API. It is
// the no-local-model alternative to ONNXEmbedder; the API key is read from the
// environment, never from config files.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
}

// NewOpenAIEmbedder creates an embedder backed by the OpenAI API. The key is
// read from cfg.APIKeyEnv (default OPENAI_API_KEY) and must be set.
func NewOpenAIEmbedder(cfg *config.OpenAIConfig, dimensions int) (*OpenAIEmbedder, error) {
	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(keyEnv)
	if key == "" {
		return nil, fmt.Errorf("%s environment variable not set", keyEnv)
	}

	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimensions: dimensions,
	}, nil
}

// Embed requests an embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch requests embeddings for all texts in one API call. The model is
// asked for vectors at the configured dimension so they match the index.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, text := range texts {
		if text == "" {
			return nil, errors.New("cannot embed empty text")
		}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(e.model),
		Input:      texts,
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embeddings request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("OpenAI returned %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("OpenAI returned embedding with index %d out of range", d.Index)
		}
		emb := make([]float32, len(d.Embedding))
		copy(emb, d.Embedding)
		utils.NormalizeL2(emb)
		embeddings[d.Index] = emb
	}
	return embeddings, nil
}

// Dimensions returns the configured embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the API client holds no resources.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
