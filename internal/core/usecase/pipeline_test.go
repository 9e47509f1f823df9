package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/answerforge/rfp-engine/internal/core/domain"
)

func newTestPipeline(store *fakeStore, model *fakeModel) *QueryPipeline {
	embedder := &fakeEmbedder{}
	retriever := NewHybridRetriever(embedder, store, 60, nil)
	synthesizer := NewAnswerSynthesizer(model, embedder, nil)
	return NewQueryPipeline(retriever, synthesizer, 5, nil)
}

func TestPipelineReturnsEvidenceAndAnswer(t *testing.T) {
	store := newFakeStore()
	store.denseHits = resultList("r1", "r2")
	store.sparseHits = resultList("r2")

	pipeline := newTestPipeline(store, &fakeModel{reply: "the SLA is 99.9%"})
	result, err := pipeline.Answer(context.Background(), "what is the SLA?", 0)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.Query != "what is the SLA?" {
		t.Fatalf("query not echoed: %q", result.Query)
	}
	if result.Answer != "the SLA is 99.9%" {
		t.Fatalf("answer = %q", result.Answer)
	}
	if len(result.SearchResults) != 2 {
		t.Fatalf("expected retrieved evidence alongside answer, got %d results", len(result.SearchResults))
	}
}

func TestPipelineEmptyStoreYieldsNoInformationAnswer(t *testing.T) {
	pipeline := newTestPipeline(newFakeStore(), &fakeModel{})
	result, err := pipeline.Answer(context.Background(), "anything", 0)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.Answer != NoInformationAnswer {
		t.Fatalf("answer = %q, want no-information text", result.Answer)
	}
	if result.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", result.Confidence)
	}
}

func TestPipelinePropagatesRetrievalError(t *testing.T) {
	store := newFakeStore()
	store.queryErr = errors.New("store down")
	pipeline := newTestPipeline(store, &fakeModel{})
	_, err := pipeline.Answer(context.Background(), "q", 0)
	if !domain.IsKind(err, domain.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
}

func TestPipelinePropagatesSynthesisError(t *testing.T) {
	store := newFakeStore()
	store.denseHits = resultList("r1")
	pipeline := newTestPipeline(store, &fakeModel{err: errors.New("llm down")})
	_, err := pipeline.Answer(context.Background(), "q", 0)
	if !domain.IsKind(err, domain.ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
}
