package qa

import (
	"fmt"

	"github.com/hyperjump/kotae/internal/config"
)

// NewProvider builds the reader selected by cfg.Provider. A provider that
// cannot start is an error, not a fallback.
func NewProvider(cfg *config.QAConfig) (Provider, error) {
	switch cfg.Provider {
	case "onnx":
		p, err := NewONNXProvider(cfg.ModelPath, cfg.MaxTokens, cfg.MaxAnswerTokens)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize onnx reader: %w", err)
		}
		return p, nil
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown qa provider: %q", cfg.Provider)
	}
}
