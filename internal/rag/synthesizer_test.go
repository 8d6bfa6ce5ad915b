package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/qa"
)

type capturingProvider struct {
	passage string
	span    qa.Span
	calls   int
}

func (p *capturingProvider) Answer(ctx context.Context, question, passage string) (qa.Span, error) {
	p.calls++
	p.passage = passage
	return p.span, nil
}

func (p *capturingProvider) Close() error { return nil }

func result(title, header, content string, score float64, rank int) *models.RetrievalResult {
	return &models.RetrievalResult{
		Chunk: &models.Chunk{
			Content:       content,
			Title:         title,
			SectionHeader: header,
			URL:           "https://wiki.example.com/" + title,
		},
		RelevanceScore: score,
		Rank:           rank,
	}
}

func TestSynthesize_EmptyResults(t *testing.T) {
	provider := &capturingProvider{}
	s := &synthesizer{provider: provider}

	answer := s.synthesize(context.Background(), "anything", nil)
	if answer.Answer != "I couldn't find relevant information in the QuickBuild documentation." {
		t.Errorf("answer = %q", answer.Answer)
	}
	if answer.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", answer.Confidence)
	}
	if answer.Sources == nil || len(answer.Sources) != 0 {
		t.Errorf("sources = %#v, want empty non-nil", answer.Sources)
	}
	if provider.calls != 0 {
		t.Error("provider should not be called with no results")
	}
}

func TestSynthesize_CombinedContextFormat(t *testing.T) {
	provider := &capturingProvider{span: qa.Span{Text: "an answer", Score: 0.9}}
	s := &synthesizer{provider: provider}
	results := []*models.RetrievalResult{
		result("Triggers", "Overview", "Triggers start builds.", 0.9, 1),
		result("Steps", "Basics", "Steps run commands.", 0.5, 2),
	}

	answer := s.synthesize(context.Background(), "q", results)
	want := "Section: Overview\nTriggers start builds.\n\nSection: Basics\nSteps run commands."
	if provider.passage != want {
		t.Errorf("passage = %q, want %q", provider.passage, want)
	}
	if answer.ContextUsed != want { // short context is carried whole
		t.Errorf("context_used = %q, want %q", answer.ContextUsed, want)
	}
	if answer.Answer != "an answer" || answer.Confidence != 0.9 {
		t.Errorf("answer = %q (%v)", answer.Answer, answer.Confidence)
	}
}

func TestSynthesize_SourcesInRankOrder(t *testing.T) {
	provider := &capturingProvider{span: qa.Span{Text: "x", Score: 0.8}}
	s := &synthesizer{provider: provider}
	results := []*models.RetrievalResult{
		result("First", "A", "aa", 0.9, 1),
		result("Second", "B", "bb", 0.7, 2),
		result("Third", "C", "cc", 0.2, 3),
	}

	answer := s.synthesize(context.Background(), "q", results)
	if len(answer.Sources) != 3 {
		t.Fatalf("got %d sources", len(answer.Sources))
	}
	for i, wantTitle := range []string{"First", "Second", "Third"} {
		if answer.Sources[i].Title != wantTitle {
			t.Errorf("sources[%d].Title = %q, want %q", i, answer.Sources[i].Title, wantTitle)
		}
	}
	if answer.Sources[0].Relevance != 0.9 || answer.Sources[2].Relevance != 0.2 {
		t.Error("relevance scores not carried through")
	}
}

func TestSynthesize_TruncatesLongContext(t *testing.T) {
	provider := &capturingProvider{span: qa.Span{Text: "x", Score: 0.5}}
	s := &synthesizer{provider: provider}
	long := strings.Repeat("q", 3000)
	results := []*models.RetrievalResult{result("T", "H", long, 0.9, 1)}

	answer := s.synthesize(context.Background(), "q", results)
	if len(provider.passage) != maxCombinedContextChars+3 {
		t.Errorf("passage length = %d, want %d", len(provider.passage), maxCombinedContextChars+3)
	}
	if !strings.HasSuffix(provider.passage, "...") {
		t.Error("truncated passage should end with ellipsis")
	}
	if len(answer.ContextUsed) != contextUsedChars+3 {
		t.Errorf("context_used length = %d, want %d", len(answer.ContextUsed), contextUsedChars+3)
	}
	if !strings.HasSuffix(answer.ContextUsed, "...") {
		t.Error("context_used should end with ellipsis")
	}
}

func TestSynthesize_FallbackOnProviderError(t *testing.T) {
	s := &synthesizer{provider: &qa.FailingProvider{Err: errors.New("model exploded")}}
	long := strings.Repeat("c", 400)
	results := []*models.RetrievalResult{
		result("Title", "Header", long, 0.8, 1),
		result("Other", "H2", "other content", 0.3, 2),
	}

	answer := s.synthesize(context.Background(), "q", results)
	wantText := fallbackPrefix + strings.Repeat("c", 300) + "..."
	if answer.Answer != wantText {
		t.Errorf("answer = %q", answer.Answer)
	}
	if answer.Confidence != 0.5 {
		t.Errorf("confidence = %v, want exactly 0.5", answer.Confidence)
	}
	if answer.Error != "model exploded" {
		t.Errorf("error = %q", answer.Error)
	}
	if len(answer.Sources) != 2 {
		t.Errorf("sources should still be populated, got %d", len(answer.Sources))
	}
	if answer.ContextUsed != "" {
		t.Errorf("fallback should not set context_used, got %q", answer.ContextUsed)
	}
}

func TestSynthesize_FallbackShortContent(t *testing.T) {
	s := &synthesizer{provider: &qa.FailingProvider{Err: errors.New("boom")}}
	results := []*models.RetrievalResult{result("T", "H", "short content", 0.9, 1)}

	answer := s.synthesize(context.Background(), "q", results)
	if answer.Answer != fallbackPrefix+"short content..." {
		t.Errorf("answer = %q", answer.Answer)
	}
}
