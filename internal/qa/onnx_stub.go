//go:build !cgo
// +build !cgo

package qa

import (
	"context"
	"errors"
)

var errNoCGO = errors.New("ONNX reader requires CGO; build with CGO_ENABLED=1 and onnxruntime")

// ONNXProvider stub type when built without CGO (see onnx.go for the real implementation).
type ONNXProvider struct{}

// NewONNXProvider returns an error when built without CGO (ONNX not available).
func NewONNXProvider(_ string, _, _ int) (*ONNXProvider, error) {
	return nil, errNoCGO
}

func (p *ONNXProvider) Answer(ctx context.Context, question, passage string) (Span, error) {
	return Span{}, errNoCGO
}

func (p *ONNXProvider) Close() error { return nil }
