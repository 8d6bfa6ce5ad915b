package qa

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/kotae/internal/config"
)

func TestMockProvider_PicksOverlappingSentence(t *testing.T) {
	p := NewMockProvider()
	passage := "Triggers start builds automatically when conditions are met. The dashboard shows recent activity."
	span, err := p.Answer(context.Background(), "What starts builds automatically?", passage)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	want := "Triggers start builds automatically when conditions are met"
	if span.Text != want {
		t.Errorf("answer = %q, want %q", span.Text, want)
	}
	if span.Score != 0.5 { // builds, automatically out of 4 question words
		t.Errorf("score = %v, want 0.5", span.Score)
	}
}

func TestMockProvider_EmptyPassage(t *testing.T) {
	p := NewMockProvider()
	if _, err := p.Answer(context.Background(), "anything", "   \n  "); err == nil {
		t.Error("expected error for empty passage")
	}
}

func TestFailingProvider(t *testing.T) {
	wantErr := errors.New("reader crashed")
	p := &FailingProvider{Err: wantErr}
	if _, err := p.Answer(context.Background(), "q", "passage"); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(&config.QAConfig{Provider: "mock"})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	defer p.Close()
	if _, ok := p.(*MockProvider); !ok {
		t.Errorf("got %T, want *MockProvider", p)
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	if _, err := NewProvider(&config.QAConfig{Provider: "oracle"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}
