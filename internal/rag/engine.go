// Package rag composes retrieval and extractive QA into the question engine.
package rag

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/corpus"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/qa"
	"github.com/hyperjump/kotae/internal/vector"
)

// Engine owns the corpus chunks, the vector index, and both model providers.
// Heavy setup (model load, corpus embedding, index build) is deferred to the
// first call and runs at most once; concurrent first callers block until it
// finishes, and a failed setup is remembered and returned to every later
// caller. After setup, chunks and index are read-only.
type Engine struct {
	cfg    *config.Config
	logger *zap.Logger

	// Overridable in tests; default to the package factories.
	newEmbedder func(*config.EmbeddingConfig) (embedding.Embedder, error)
	newProvider func(*config.QAConfig) (qa.Provider, error)

	initOnce sync.Once
	initErr  error

	chunks      []*models.Chunk
	index       *vector.FlatIndex
	embedder    embedding.Embedder
	provider    qa.Provider
	retriever   *retriever
	synthesizer *synthesizer
}

// Status describes a warm engine for the CLI and diagnostics.
type Status struct {
	Chunks            int    `json:"chunks"`
	IndexSize         int    `json:"index_size"`
	Dimensions        int    `json:"dimensions"`
	EmbeddingProvider string `json:"embedding_provider"`
	QAProvider        string `json:"qa_provider"`
}

// NewEngine creates an engine for the given configuration. Nothing heavy
// happens until the first Ask, HealthCheck, or Warmup call.
func NewEngine(cfg *config.Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:         cfg,
		logger:      logger,
		newEmbedder: embedding.NewEmbedder,
		newProvider: qa.NewProvider,
	}
}

// Ask answers a question from the corpus. topK defaults to 3 and is capped;
// an error is returned only when initialization or query embedding fails. A
// failing QA provider still yields a degraded Answer.
func (e *Engine) Ask(ctx context.Context, question string, topK int) (*models.Answer, error) {
	if err := e.init(ctx); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = models.DefaultTopK
	}
	if topK > models.MaxTopK {
		topK = models.MaxTopK
	}
	results, err := e.retriever.retrieve(ctx, question, topK)
	if err != nil {
		return nil, err
	}
	return e.synthesizer.synthesize(ctx, question, results), nil
}

// HealthCheck reports readiness by pushing a trivial probe through the full
// ask path. Failures are captured in the result, never returned as errors.
// A probe that retrieves nothing on a ready engine still counts as healthy.
func (e *Engine) HealthCheck(ctx context.Context) models.Health {
	if _, err := e.Ask(ctx, "test", 1); err != nil {
		return models.Health{Status: models.StatusUnhealthy, Error: err.Error()}
	}
	return models.Health{
		Status:          models.StatusHealthy,
		DocumentsLoaded: len(e.chunks),
	}
}

// Warmup runs initialization eagerly. Useful for the server and the index
// subcommand; Ask and HealthCheck trigger the same path lazily.
func (e *Engine) Warmup(ctx context.Context) error {
	return e.init(ctx)
}

// Status returns counts and provider names; it initializes the engine if needed.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	if err := e.init(ctx); err != nil {
		return nil, err
	}
	return &Status{
		Chunks:            len(e.chunks),
		IndexSize:         e.index.Size(),
		Dimensions:        e.index.Dimensions(),
		EmbeddingProvider: e.cfg.Embedding.Provider,
		QAProvider:        e.cfg.QA.Provider,
	}, nil
}

// Close releases both providers. Safe to call on an engine that never
// initialized or failed to initialize.
func (e *Engine) Close() error {
	var firstErr error
	if e.embedder != nil {
		if err := e.embedder.Close(); err != nil {
			firstErr = err
		}
		e.embedder = nil
	}
	if e.provider != nil {
		if err := e.provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		e.provider = nil
	}
	return firstErr
}

func (e *Engine) init(ctx context.Context) error {
	e.initOnce.Do(func() {
		e.initErr = e.initialize(ctx)
	})
	return e.initErr
}

func (e *Engine) initialize(ctx context.Context) error {
	chunks, err := corpus.Load(e.cfg.Corpus.Path)
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}

	embedder, err := e.newEmbedder(&e.cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %w", err)
	}
	provider, err := e.newProvider(&e.cfg.QA)
	if err != nil {
		embedder.Close()
		return fmt.Errorf("failed to initialize qa provider: %w", err)
	}

	index, err := e.buildIndex(ctx, embedder, chunks)
	if err != nil {
		embedder.Close()
		provider.Close()
		return err
	}

	e.chunks = chunks
	e.index = index
	e.embedder = embedder
	e.provider = provider
	e.retriever = &retriever{embedder: embedder, index: index, chunks: chunks}
	e.synthesizer = &synthesizer{provider: provider}

	e.logger.Info("engine ready",
		zap.Int("chunks", len(chunks)),
		zap.Int("dimensions", index.Dimensions()),
		zap.String("embedding_provider", e.cfg.Embedding.Provider),
		zap.String("qa_provider", e.cfg.QA.Provider))
	return nil
}

// buildIndex loads a snapshot when one matches the chunk count, otherwise
// embeds every chunk's content and builds the index from scratch, saving a
// fresh snapshot when a cache path is configured.
func (e *Engine) buildIndex(ctx context.Context, embedder embedding.Embedder, chunks []*models.Chunk) (*vector.FlatIndex, error) {
	dimensions := embedder.Dimensions()
	index, err := vector.NewFlatIndex(dimensions)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	snapshotPath := e.cfg.Corpus.IndexCachePath
	if snapshotPath != "" {
		if err := index.Load(snapshotPath); err != nil {
			e.logger.Warn("failed to load index snapshot, rebuilding", zap.Error(err))
		} else if index.Size() == len(chunks) && index.Size() > 0 {
			e.logger.Info("loaded index snapshot",
				zap.String("path", snapshotPath),
				zap.Int("vectors", index.Size()))
			return index, nil
		}
		// Stale or empty snapshot: rebuild on a clean index.
		if index.Size() > 0 {
			if index, err = vector.NewFlatIndex(dimensions); err != nil {
				return nil, fmt.Errorf("failed to create index: %w", err)
			}
		}
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed corpus: %w", err)
	}
	if err := index.Add(ctx, vectors); err != nil {
		return nil, fmt.Errorf("failed to index corpus: %w", err)
	}

	if snapshotPath != "" && index.Size() > 0 {
		if err := index.Save(snapshotPath); err != nil {
			e.logger.Warn("failed to save index snapshot", zap.Error(err))
		}
	}
	return index, nil
}
