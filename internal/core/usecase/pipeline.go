package usecase

import (
	"context"
	"log/slog"

	"github.com/answerforge/rfp-engine/internal/core/domain"
)

const DefaultTopK = 5

// QueryPipeline composes retrieval and synthesis for a single query. Errors
// from either stage propagate unchanged; the empty-results case is a
// successful zero-confidence answer, never an error.
type QueryPipeline struct {
	retriever   *HybridRetriever
	synthesizer *AnswerSynthesizer
	defaultTopK int
	logger      *slog.Logger
}

func NewQueryPipeline(retriever *HybridRetriever, synthesizer *AnswerSynthesizer, defaultTopK int, logger *slog.Logger) *QueryPipeline {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryPipeline{
		retriever:   retriever,
		synthesizer: synthesizer,
		defaultTopK: defaultTopK,
		logger:      logger,
	}
}

func (p *QueryPipeline) Answer(ctx context.Context, query string, topK int) (*domain.AnswerResult, error) {
	if topK <= 0 {
		topK = p.defaultTopK
	}

	results, err := p.retriever.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	synthesis, err := p.synthesizer.Synthesize(ctx, query, results, topK)
	if err != nil {
		return nil, err
	}

	p.logger.Info("query answered",
		"results", len(results),
		"confidence", synthesis.Confidence,
	)

	return &domain.AnswerResult{
		Query:         query,
		SearchResults: results,
		Answer:        synthesis.Answer,
		Confidence:    synthesis.Confidence,
		Breakdown:     synthesis.Breakdown,
	}, nil
}
