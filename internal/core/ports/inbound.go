package ports

import (
	"context"

	"github.com/answerforge/rfp-engine/internal/core/domain"
)

// RecordIndexer is the inbound contract for adding knowledge records.
type RecordIndexer interface {
	Index(ctx context.Context, record domain.Record) (string, error)
	BulkIndex(ctx context.Context, records []domain.Record) (domain.BulkIndexReport, error)
}

// AnswerService answers a single question against the knowledge base.
type AnswerService interface {
	Answer(ctx context.Context, query string, topK int) (*domain.AnswerResult, error)
}

// BulkRunner answers a batch of questions with bounded parallelism, returning
// one result per question in input order.
type BulkRunner interface {
	Run(ctx context.Context, questions []string, maxWorkers int) []domain.BulkItemResult
}

// ImportProcessor is the inbound contract for asynchronous import processing.
type ImportProcessor interface {
	ProcessByID(ctx context.Context, importID string) error
}
