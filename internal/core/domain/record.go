package domain

import "time"

const (
	// DenseVectorSize is the dimensionality of dense embeddings across the
	// whole system: embedding provider, collection schema and confidence math.
	DenseVectorSize = 512

	DefaultAnswerType = "general"
)

// Record is a stored question/answer knowledge unit. Question and Answer are
// required; the rest is optional metadata carried verbatim in the store
// payload.
type Record struct {
	ID         string `json:"id,omitempty"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Summary    string `json:"summary,omitempty"`
	AnswerType string `json:"answer_type,omitempty"`
	Date       string `json:"date,omitempty"`
}

// SparseVector is a lexical term-weighted representation: parallel slices of
// unique, ascending indices and their weights.
type SparseVector struct {
	Indices []uint32  `json:"indices"`
	Values  []float32 `json:"values"`
}

// EmbeddingPair holds both vector representations of one text. It is derived
// state, recomputed whenever the source text changes, never stored on its own.
type EmbeddingPair struct {
	Dense  []float32
	Sparse SparseVector
}

// RetrievedResult is one hit of a hybrid search, ordered by descending fused
// relevance.
type RetrievedResult struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Payload Record  `json:"payload"`
}

// ConfidenceBreakdown carries the four sub-scores whose weighted sum produces
// the final confidence value. Each factor is in [0,1].
type ConfidenceBreakdown struct {
	Relevance float64 `json:"relevance"`
	Diversity float64 `json:"diversity"`
	Agreement float64 `json:"agreement"`
	Coverage  float64 `json:"coverage"`
}

// AnswerResult is the unit returned by the query pipeline: the retrieved
// evidence together with the synthesized answer.
type AnswerResult struct {
	Query         string              `json:"query"`
	SearchResults []RetrievedResult   `json:"search_results"`
	Answer        string              `json:"answer"`
	Confidence    float64             `json:"confidence"`
	Breakdown     ConfidenceBreakdown `json:"confidence_breakdown"`
}

type BulkStatus string

const (
	BulkSuccess BulkStatus = "success"
	BulkError   BulkStatus = "error"
)

// SourceDocument is the export-facing shape of one retrieved source.
type SourceDocument struct {
	Content  string  `json:"content"`
	Metadata Record  `json:"metadata"`
	Score    float64 `json:"score"`
}

// BulkItemResult is produced by the bulk executor, one per input question,
// in input order. A failed item carries status=error and the failure text; it
// never aborts sibling items.
type BulkItemResult struct {
	Question        string               `json:"question"`
	Answer          *string              `json:"answer"`
	Confidence      float64              `json:"confidence"`
	Breakdown       *ConfidenceBreakdown `json:"confidence_breakdown"`
	SourceDocuments []SourceDocument     `json:"source_documents"`
	Status          BulkStatus           `json:"status"`
	ErrorMessage    string               `json:"error_message,omitempty"`
}

// BulkIndexReport summarizes a batch index run: invalid records are skipped
// and counted, accepted records are upserted in one call.
type BulkIndexReport struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
}

type ImportKind string

const (
	ImportRecords   ImportKind = "records"
	ImportQuestions ImportKind = "questions"
)

type ImportStatus string

const (
	ImportUploaded   ImportStatus = "uploaded"
	ImportProcessing ImportStatus = "processing"
	ImportReady      ImportStatus = "ready"
	ImportFailed     ImportStatus = "failed"
)

// ImportJob tracks an uploaded knowledge file through the async indexing
// pipeline.
type ImportJob struct {
	ID          string       `json:"id"`
	Filename    string       `json:"filename"`
	MimeType    string       `json:"mime_type"`
	StoragePath string       `json:"storage_path"`
	Kind        ImportKind   `json:"kind"`
	Status      ImportStatus `json:"status"`
	Indexed     int          `json:"indexed"`
	Skipped     int          `json:"skipped"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
