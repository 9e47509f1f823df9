package usecase

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/answerforge/rfp-engine/internal/core/domain"
	"github.com/answerforge/rfp-engine/internal/core/ports"
)

// fakeEmbedder derives deterministic vectors from the text so tests can
// reason about similarity: identical texts embed identically.
type fakeEmbedder struct {
	mu         sync.Mutex
	denseCalls []string
	denseErr   error
	sparseErr  error
	denseFn    func(text string) []float32
}

func (f *fakeEmbedder) EmbedDense(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.denseCalls = append(f.denseCalls, text)
	f.mu.Unlock()
	if f.denseErr != nil {
		return nil, f.denseErr
	}
	if f.denseFn != nil {
		return f.denseFn(text), nil
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum32()
	vec := make([]float32, 8)
	for i := range vec {
		seed = seed*1664525 + 1013904223
		vec[i] = float32(seed%1000)/1000.0 + 0.001
	}
	return vec, nil
}

func (f *fakeEmbedder) EmbedSparse(_ context.Context, text string) (domain.SparseVector, error) {
	if f.sparseErr != nil {
		return domain.SparseVector{}, f.sparseErr
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	return domain.SparseVector{Indices: []uint32{h.Sum32()}, Values: []float32{1}}, nil
}

func (f *fakeEmbedder) denseCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.denseCalls)
}

// fakeStore keeps points in memory and serves canned query results.
type fakeStore struct {
	mu         sync.Mutex
	points     map[string]ports.StoredPoint
	denseHits  []domain.RetrievedResult
	sparseHits []domain.RetrievedResult
	upsertErr  error
	queryErr   error
	upserts    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{points: make(map[string]ports.StoredPoint)}
}

func (f *fakeStore) EnsureCollection(context.Context) error { return nil }

func (f *fakeStore) Upsert(_ context.Context, points []ports.StoredPoint) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	for _, p := range points {
		f.points[p.ID] = p
	}
	return nil
}

func (f *fakeStore) QueryDense(_ context.Context, _ []float32, topK int) ([]domain.RetrievedResult, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return trimResults(f.denseHits, topK), nil
}

func (f *fakeStore) QuerySparse(_ context.Context, _ domain.SparseVector, topK int) ([]domain.RetrievedResult, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return trimResults(f.sparseHits, topK), nil
}

// fakeModel returns a fixed completion.
type fakeModel struct {
	reply string
	err   error
	calls int
}

func (f *fakeModel) Complete(_ context.Context, _ string, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.reply == "" {
		return "synthesized answer", nil
	}
	return f.reply, nil
}

// fakeAnswerService drives the bulk executor without a real pipeline.
type fakeAnswerService struct {
	mu       sync.Mutex
	inFlight int
	maxSeen  int
	answerFn func(query string) (*domain.AnswerResult, error)
}

func (f *fakeAnswerService) Answer(_ context.Context, query string, _ int) (*domain.AnswerResult, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.answerFn != nil {
		return f.answerFn(query)
	}
	return &domain.AnswerResult{Query: query, Answer: fmt.Sprintf("answer to %s", query)}, nil
}

func resultList(ids ...string) []domain.RetrievedResult {
	out := make([]domain.RetrievedResult, len(ids))
	for i, id := range ids {
		out[i] = domain.RetrievedResult{
			ID:    id,
			Score: 1.0 - float64(i)*0.1,
			Payload: domain.Record{
				ID:       id,
				Question: "q-" + id,
				Answer:   "a-" + id,
			},
		}
	}
	return out
}
