//go:build cgo
// +build cgo

package qa

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXProvider runs a SQuAD-style extractive reader (DistilBERT ONNX export).
// The model takes input_ids and attention_mask and emits start/end logits over
// the token positions; the best-scoring span inside the passage segment is the
// answer. Tensors are allocated once and Run is serialized by a mutex.
type ONNXProvider struct {
	session         *ort.AdvancedSession
	maxTokens       int
	maxAnswerTokens int

	inputIDsTensor      *ort.Tensor[int64]
	attentionMaskTensor *ort.Tensor[int64]
	startLogitsTensor   *ort.Tensor[float32]
	endLogitsTensor     *ort.Tensor[float32]
	mu                  sync.Mutex
}

// NewONNXProvider creates a reader for the model at modelPath.
func NewONNXProvider(modelPath string, maxTokens, maxAnswerTokens int) (*ONNXProvider, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}
	if maxTokens < 8 {
		maxTokens = 384
	}
	if maxAnswerTokens <= 0 {
		maxAnswerTokens = 30
	}

	inputIDsTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), make([]int64, maxTokens))
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	attentionMaskTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), make([]int64, maxTokens))
	if err != nil {
		inputIDsTensor.Destroy()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	startLogitsTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), make([]float32, maxTokens))
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		return nil, fmt.Errorf("failed to create start_logits tensor: %w", err)
	}
	endLogitsTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), make([]float32, maxTokens))
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		startLogitsTensor.Destroy()
		return nil, fmt.Errorf("failed to create end_logits tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"start_logits", "end_logits"},
		[]ort.ArbitraryTensor{inputIDsTensor, attentionMaskTensor},
		[]ort.ArbitraryTensor{startLogitsTensor, endLogitsTensor},
		nil,
	)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		startLogitsTensor.Destroy()
		endLogitsTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXProvider{
		session:             session,
		maxTokens:           maxTokens,
		maxAnswerTokens:     maxAnswerTokens,
		inputIDsTensor:      inputIDsTensor,
		attentionMaskTensor: attentionMaskTensor,
		startLogitsTensor:   startLogitsTensor,
		endLogitsTensor:     endLogitsTensor,
	}, nil
}

// Answer runs the reader and returns the best answer span from the passage.
func (p *ONNXProvider) Answer(ctx context.Context, question, passage string) (Span, error) {
	enc := encodePair(question, passage, p.maxTokens)
	if enc.ctxEnd <= enc.ctxStart {
		return Span{}, errors.New("passage produced no tokens")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	copy(p.inputIDsTensor.GetData(), enc.inputIDs)
	copy(p.attentionMaskTensor.GetData(), enc.attentionMask)

	if err := p.session.Run(); err != nil {
		return Span{}, fmt.Errorf("inference failed: %w", err)
	}

	startProbs := maskedSoftmax(p.startLogitsTensor.GetData(), enc.ctxStart, enc.ctxEnd)
	endProbs := maskedSoftmax(p.endLogitsTensor.GetData(), enc.ctxStart, enc.ctxEnd)
	s, e, score := bestSpan(startProbs, endProbs, enc.ctxStart, enc.ctxEnd, p.maxAnswerTokens)

	return Span{Text: enc.spanText(s, e), Score: score}, nil
}

// Close destroys the session and tensors.
func (p *ONNXProvider) Close() error {
	var err error
	if p.session != nil {
		err = p.session.Destroy()
		p.session = nil
	}
	if p.inputIDsTensor != nil {
		_ = p.inputIDsTensor.Destroy()
		p.inputIDsTensor = nil
	}
	if p.attentionMaskTensor != nil {
		_ = p.attentionMaskTensor.Destroy()
		p.attentionMaskTensor = nil
	}
	if p.startLogitsTensor != nil {
		_ = p.startLogitsTensor.Destroy()
		p.startLogitsTensor = nil
	}
	if p.endLogitsTensor != nil {
		_ = p.endLogitsTensor.Destroy()
		p.endLogitsTensor = nil
	}
	return err
}
