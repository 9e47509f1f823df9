package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/answerforge/rfp-engine/internal/core/domain"
)

func TestSynthesizeEmptyResultsIsTerminalNonError(t *testing.T) {
	model := &fakeModel{}
	s := NewAnswerSynthesizer(model, &fakeEmbedder{}, nil)

	out, err := s.Synthesize(context.Background(), "q", nil, 5)
	if err != nil {
		t.Fatalf("empty results must not error, got %v", err)
	}
	if out.Answer != NoInformationAnswer {
		t.Fatalf("answer = %q, want fixed no-information text", out.Answer)
	}
	if out.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", out.Confidence)
	}
	if out.Breakdown != (domain.ConfidenceBreakdown{}) {
		t.Fatalf("breakdown = %+v, want all zeros", out.Breakdown)
	}
	if model.calls != 0 {
		t.Fatalf("model must not be invoked for empty results")
	}
}

func TestSynthesizeAgreementZeroForSingleResult(t *testing.T) {
	s := NewAnswerSynthesizer(&fakeModel{}, &fakeEmbedder{}, nil)
	out, err := s.Synthesize(context.Background(), "q", resultList("r1"), 5)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if out.Breakdown.Agreement != 0 {
		t.Fatalf("agreement = %v, want 0 with fewer than 2 results", out.Breakdown.Agreement)
	}
}

func TestSynthesizeDiversityFullAtRequestedBreadth(t *testing.T) {
	s := NewAnswerSynthesizer(&fakeModel{}, &fakeEmbedder{}, nil)
	out, err := s.Synthesize(context.Background(), "q", resultList("a", "b", "c"), 3)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if out.Breakdown.Diversity != 1.0 {
		t.Fatalf("diversity = %v, want 1.0 when len(results) >= top_k", out.Breakdown.Diversity)
	}
}

func TestSynthesizeConfidenceWithinUnitInterval(t *testing.T) {
	s := NewAnswerSynthesizer(&fakeModel{}, &fakeEmbedder{}, nil)
	out, err := s.Synthesize(context.Background(), "q", resultList("a", "b", "c", "d"), 5)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		t.Fatalf("confidence = %v, want within [0,1]", out.Confidence)
	}
	b := out.Breakdown
	for name, v := range map[string]float64{
		"relevance": b.Relevance,
		"diversity": b.Diversity,
		"agreement": b.Agreement,
		"coverage":  b.Coverage,
	} {
		if v < 0 || v > 1 {
			t.Fatalf("%s = %v, want within [0,1]", name, v)
		}
	}
}

func TestSynthesizeIdenticalAnswersAgreeFully(t *testing.T) {
	results := resultList("a", "b")
	results[0].Payload.Answer = "same text"
	results[1].Payload.Answer = "same text"

	s := NewAnswerSynthesizer(&fakeModel{}, &fakeEmbedder{}, nil)
	out, err := s.Synthesize(context.Background(), "q", results, 5)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if out.Breakdown.Agreement < 0.999 {
		t.Fatalf("agreement = %v, want ~1.0 for identical answers", out.Breakdown.Agreement)
	}
}

func TestSynthesizeEmbedsEachSourceAnswerOnce(t *testing.T) {
	embedder := &fakeEmbedder{}
	s := NewAnswerSynthesizer(&fakeModel{}, embedder, nil)
	results := resultList("a", "b", "c", "d")
	if _, err := s.Synthesize(context.Background(), "q", results, 5); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	// 4 source answers + generated answer + query.
	if got := embedder.denseCallCount(); got != 6 {
		t.Fatalf("dense embed calls = %d, want 6 (answers embedded once each)", got)
	}
}

func TestSynthesizePromptGroundsOnSources(t *testing.T) {
	results := resultList("r1", "r2")
	results[0].Payload.Summary = "short summary"
	prompt := buildAnswerPrompt("What is your uptime SLA?", results)

	for _, want := range []string{
		"Source 1:",
		"Source 2:",
		"Question: q-r1",
		"Answer: a-r1",
		"Summary: short summary",
		"What is your uptime SLA?",
		"Do not make up information",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestSynthesizeWrapsModelError(t *testing.T) {
	boom := errors.New("llm 500")
	s := NewAnswerSynthesizer(&fakeModel{err: boom}, &fakeEmbedder{}, nil)
	_, err := s.Synthesize(context.Background(), "q", resultList("a"), 5)
	if !domain.IsKind(err, domain.ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause preserved, got %v", err)
	}
}

func TestSynthesizeWrapsEmbedderError(t *testing.T) {
	s := NewAnswerSynthesizer(&fakeModel{}, &fakeEmbedder{denseErr: errors.New("quota")}, nil)
	_, err := s.Synthesize(context.Background(), "q", resultList("a", "b"), 5)
	if !domain.IsKind(err, domain.ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Fatalf("identical vectors: %v, want 1", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Fatalf("orthogonal vectors: %v, want 0", got)
	}
	if got := cosineSimilarity([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Fatalf("zero vector: %v, want 0", got)
	}
}
