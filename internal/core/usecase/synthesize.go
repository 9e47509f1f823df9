package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/answerforge/rfp-engine/internal/core/domain"
	"github.com/answerforge/rfp-engine/internal/core/ports"
)

// NoInformationAnswer is the terminal, non-error outcome for an empty result
// set. Callers must treat it as a successful low-confidence answer.
const NoInformationAnswer = "No relevant information found."

const systemPrompt = "You are an RFP assistant that provides clear, accurate answers based on the retrieved information."

// Confidence factor weights. They sum to 1.0, so the weighted confidence of
// factors in [0,1] stays in [0,1].
const (
	weightRelevance = 0.4
	weightDiversity = 0.2
	weightAgreement = 0.2
	weightCoverage  = 0.2
)

// Synthesis is the synthesizer's output: the generated answer and its
// calibrated confidence.
type Synthesis struct {
	Answer     string
	Confidence float64
	Breakdown  domain.ConfidenceBreakdown
}

// AnswerSynthesizer grounds a language model on retrieved results and scores
// the produced answer with a four-factor confidence.
type AnswerSynthesizer struct {
	model    ports.CompletionModel
	embedder ports.Embedder
	logger   *slog.Logger
}

func NewAnswerSynthesizer(model ports.CompletionModel, embedder ports.Embedder, logger *slog.Logger) *AnswerSynthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerSynthesizer{
		model:    model,
		embedder: embedder,
		logger:   logger,
	}
}

func (s *AnswerSynthesizer) Synthesize(ctx context.Context, query string, results []domain.RetrievedResult, topK int) (*Synthesis, error) {
	if len(results) == 0 {
		return &Synthesis{Answer: NoInformationAnswer}, nil
	}

	answer, err := s.model.Complete(ctx, systemPrompt, buildAnswerPrompt(query, results))
	if err != nil {
		return nil, domain.WrapError(domain.ErrSynthesis, "generate answer", err)
	}

	breakdown, err := s.scoreConfidence(ctx, query, answer, results, topK)
	if err != nil {
		return nil, err
	}

	confidence := weightRelevance*breakdown.Relevance +
		weightDiversity*breakdown.Diversity +
		weightAgreement*breakdown.Agreement +
		weightCoverage*breakdown.Coverage

	s.logger.Info("confidence breakdown",
		"relevance", breakdown.Relevance,
		"diversity", breakdown.Diversity,
		"agreement", breakdown.Agreement,
		"coverage", breakdown.Coverage,
		"confidence", confidence,
	)

	return &Synthesis{
		Answer:     answer,
		Confidence: confidence,
		Breakdown:  breakdown,
	}, nil
}

// scoreConfidence computes the four factors. Agreement embeds each retrieved
// answer once and averages pairwise cosine similarity; coverage compares the
// generated answer against the query. Every factor is clamped to [0,1].
func (s *AnswerSynthesizer) scoreConfidence(ctx context.Context, query, answer string, results []domain.RetrievedResult, topK int) (domain.ConfidenceBreakdown, error) {
	var breakdown domain.ConfidenceBreakdown

	breakdown.Relevance = clamp01(results[0].Score)

	if topK > 0 {
		breakdown.Diversity = clamp01(float64(len(results)) / float64(topK))
	}

	agreement, err := s.sourceAgreement(ctx, results)
	if err != nil {
		return breakdown, err
	}
	breakdown.Agreement = clamp01(agreement)

	answerVec, err := s.embedder.EmbedDense(ctx, answer)
	if err != nil {
		return breakdown, domain.WrapError(domain.ErrSynthesis, "embed generated answer", err)
	}
	queryVec, err := s.embedder.EmbedDense(ctx, query)
	if err != nil {
		return breakdown, domain.WrapError(domain.ErrSynthesis, "embed query", err)
	}
	breakdown.Coverage = clamp01(cosineSimilarity(answerVec, queryVec))

	return breakdown, nil
}

// sourceAgreement is the mean pairwise cosine similarity between the dense
// embeddings of the retrieved answers. Fewer than two results leave no pairs
// to compare, so agreement is zero.
func (s *AnswerSynthesizer) sourceAgreement(ctx context.Context, results []domain.RetrievedResult) (float64, error) {
	if len(results) < 2 {
		return 0, nil
	}

	vectors := make([][]float32, len(results))
	for i, r := range results {
		vec, err := s.embedder.EmbedDense(ctx, r.Payload.Answer)
		if err != nil {
			return 0, domain.WrapError(domain.ErrSynthesis, "embed source answer", err)
		}
		vectors[i] = vec
	}

	var sum float64
	pairs := 0
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			sum += cosineSimilarity(vectors[i], vectors[j])
			pairs++
		}
	}
	return sum / float64(pairs), nil
}

// buildAnswerPrompt formats the retrieved sources into a grounding prompt
// instructing the model to answer strictly from the provided context.
func buildAnswerPrompt(query string, results []domain.RetrievedResult) string {
	var context strings.Builder
	for i, r := range results {
		fmt.Fprintf(&context, "Source %d:\n", i+1)
		fmt.Fprintf(&context, "Question: %s\n", r.Payload.Question)
		fmt.Fprintf(&context, "Answer: %s\n", r.Payload.Answer)
		if r.Payload.Summary != "" {
			fmt.Fprintf(&context, "Summary: %s\n", r.Payload.Summary)
		}
		fmt.Fprintf(&context, "Relevance Score: %.2f\n\n", r.Score)
	}

	return fmt.Sprintf(`You are an RFP (Request for Proposal) answering assistant.
Use the provided context from a hybrid search to answer the user's question accurately.
Only use information from the provided context. If the context doesn't contain enough
information to answer the question fully, acknowledge the limitations in your response.

User Question: %s

Context from search results:
%s
Instructions:
1. Answer the question directly and precisely
2. If multiple sources provide relevant information, synthesize them
3. If information is incomplete, acknowledge it in your response
4. Include any relevant dates, certifications, or specific details mentioned in the context
5. Do not make up information that isn't explicitly stated in the context

Your answer:`, query, context.String())
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
