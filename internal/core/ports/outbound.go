package ports

import (
	"context"
	"io"

	"github.com/answerforge/rfp-engine/internal/core/domain"
)

// Embedder is the embedding provider: one dense vector and one sparse vector
// per text. Deterministic for identical text within a session.
type Embedder interface {
	EmbedDense(ctx context.Context, text string) ([]float32, error)
	EmbedSparse(ctx context.Context, text string) (domain.SparseVector, error)
}

// StoredPoint is one upsert unit: both vector representations plus the record
// payload. Re-upserting the same ID overwrites.
type StoredPoint struct {
	ID     string
	Dense  []float32
	Sparse domain.SparseVector
	Record domain.Record
}

// VectorStore persists points and serves per-representation similarity
// queries. Upsert covers a whole batch in one call; the store makes no
// partial-commit guarantee on failure (external limitation).
type VectorStore interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, points []StoredPoint) error
	QueryDense(ctx context.Context, vector []float32, topK int) ([]domain.RetrievedResult, error)
	QuerySparse(ctx context.Context, vector domain.SparseVector, topK int) ([]domain.RetrievedResult, error)
}

// CompletionModel generates the final answer text. Single-shot, synchronous,
// no streaming.
type CompletionModel interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ImportJobStore persists import job state.
type ImportJobStore interface {
	Create(ctx context.Context, job *domain.ImportJob) error
	GetByID(ctx context.Context, id string) (*domain.ImportJob, error)
	UpdateStatus(ctx context.Context, id string, status domain.ImportStatus, errMessage string) error
	SaveCounts(ctx context.Context, id string, indexed, skipped int) error
}

// ObjectStorage stores uploaded knowledge files until the worker picks them up.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue carries import events from the api to the worker.
type MessageQueue interface {
	PublishImportCreated(ctx context.Context, importID string) error
	SubscribeImportCreated(ctx context.Context, handler func(context.Context, string) error) error
}

// RecordFileParser turns an uploaded knowledge file into cleaned records.
type RecordFileParser interface {
	ParseRecords(filename string, data io.Reader) ([]domain.Record, error)
	ParseQuestions(filename string, data io.Reader) ([]string, error)
}
