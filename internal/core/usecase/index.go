package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/answerforge/rfp-engine/internal/core/domain"
	"github.com/answerforge/rfp-engine/internal/core/ports"
)

// RecordIndexUseCase validates, embeds and upserts knowledge records. Each
// record is embedded from its combined question+answer text and stored under
// both vector representations; re-upserting an id overwrites in place.
type RecordIndexUseCase struct {
	embedder ports.Embedder
	store    ports.VectorStore
	logger   *slog.Logger
}

func NewRecordIndexUseCase(embedder ports.Embedder, store ports.VectorStore, logger *slog.Logger) *RecordIndexUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordIndexUseCase{
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// Index stores a single record and returns its id (generated when absent).
func (uc *RecordIndexUseCase) Index(ctx context.Context, record domain.Record) (string, error) {
	point, err := uc.preparePoint(ctx, record)
	if err != nil {
		return "", err
	}
	if err := uc.upsert(ctx, []ports.StoredPoint{point}); err != nil {
		return "", err
	}
	return point.ID, nil
}

// BulkIndex validates each record, skipping invalid ones, and upserts all
// accepted records in a single store call. An upsert failure is a store error
// covering the whole batch; the store gives no partial-commit guarantee.
func (uc *RecordIndexUseCase) BulkIndex(ctx context.Context, records []domain.Record) (domain.BulkIndexReport, error) {
	var report domain.BulkIndexReport
	points := make([]ports.StoredPoint, 0, len(records))
	for i, record := range records {
		point, err := uc.preparePoint(ctx, record)
		if err != nil {
			if domain.IsKind(err, domain.ErrValidation) {
				uc.logger.Warn("skipping invalid record", "index", i, "err", err)
				report.Skipped++
				continue
			}
			return report, err
		}
		points = append(points, point)
	}

	if err := uc.upsert(ctx, points); err != nil {
		return report, err
	}
	report.Indexed = len(points)
	uc.logger.Info("bulk index done", "indexed", report.Indexed, "skipped", report.Skipped)
	return report, nil
}

func (uc *RecordIndexUseCase) preparePoint(ctx context.Context, record domain.Record) (ports.StoredPoint, error) {
	record = domain.CleanRecord(record)
	if err := domain.ValidateRecord(record); err != nil {
		return ports.StoredPoint{}, err
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	text := domain.CombinedText(record)
	dense, err := uc.embedder.EmbedDense(ctx, text)
	if err != nil {
		return ports.StoredPoint{}, domain.WrapError(domain.ErrStore, "embed record dense", err)
	}
	sparse, err := uc.embedder.EmbedSparse(ctx, text)
	if err != nil {
		return ports.StoredPoint{}, domain.WrapError(domain.ErrStore, "embed record sparse", err)
	}

	return ports.StoredPoint{
		ID:     record.ID,
		Dense:  dense,
		Sparse: sparse,
		Record: record,
	}, nil
}

func (uc *RecordIndexUseCase) upsert(ctx context.Context, points []ports.StoredPoint) error {
	if len(points) == 0 {
		return nil
	}
	if err := uc.store.EnsureCollection(ctx); err != nil {
		return domain.WrapError(domain.ErrStore, "ensure collection", err)
	}
	if err := uc.store.Upsert(ctx, points); err != nil {
		return domain.WrapError(domain.ErrStore, "upsert records", err)
	}
	return nil
}
