package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/answerforge/rfp-engine/internal/core/domain"
	"github.com/answerforge/rfp-engine/internal/core/ports"
)

const DefaultBulkWorkers = 4

// BulkExecutor answers a batch of questions concurrently with a bounded
// worker pool. Each question is an isolated unit of work: a failure (or
// panic) inside one unit becomes a status=error result and never cancels
// sibling units. Every unit writes its own result slot by original index, so
// output order always matches input order regardless of completion order.
type BulkExecutor struct {
	pipeline ports.AnswerService
	logger   *slog.Logger
}

func NewBulkExecutor(pipeline ports.AnswerService, logger *slog.Logger) *BulkExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BulkExecutor{
		pipeline: pipeline,
		logger:   logger,
	}
}

// Run blocks until every unit has completed or failed; no partial results are
// emitted mid-run. There is no timeout or cancellation beyond the ctx handed
// to each pipeline call.
func (e *BulkExecutor) Run(ctx context.Context, questions []string, maxWorkers int) []domain.BulkItemResult {
	if maxWorkers <= 0 {
		maxWorkers = DefaultBulkWorkers
	}

	out := make([]domain.BulkItemResult, len(questions))
	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup

	for i, question := range questions {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, question string) {
			defer func() { <-sem; wg.Done() }()
			out[i] = e.answerOne(ctx, question)
		}(i, question)
	}
	wg.Wait()

	success := 0
	for _, r := range out {
		if r.Status == domain.BulkSuccess {
			success++
		}
	}
	e.logger.Info("bulk run done", "total", len(questions), "success", success)
	return out
}

func (e *BulkExecutor) answerOne(ctx context.Context, question string) (item domain.BulkItemResult) {
	item = domain.BulkItemResult{
		Question:        question,
		SourceDocuments: []domain.SourceDocument{},
		Status:          domain.BulkError,
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("bulk unit panic", "question", question, "panic", r)
			item.ErrorMessage = fmt.Sprintf("panic: %v", r)
		}
	}()

	result, err := e.pipeline.Answer(ctx, question, 0)
	if err != nil {
		e.logger.Error("bulk unit failed", "question", question, "err", err)
		item.ErrorMessage = err.Error()
		return item
	}

	docs := make([]domain.SourceDocument, len(result.SearchResults))
	for i, hit := range result.SearchResults {
		docs[i] = domain.SourceDocument{
			Content:  hit.Payload.Answer,
			Metadata: hit.Payload,
			Score:    hit.Score,
		}
	}

	answer := result.Answer
	breakdown := result.Breakdown
	return domain.BulkItemResult{
		Question:        question,
		Answer:          &answer,
		Confidence:      result.Confidence,
		Breakdown:       &breakdown,
		SourceDocuments: docs,
		Status:          domain.BulkSuccess,
	}
}
