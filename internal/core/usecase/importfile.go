package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/answerforge/rfp-engine/internal/core/domain"
	"github.com/answerforge/rfp-engine/internal/core/ports"
)

// UploadImportUseCase accepts an uploaded knowledge file, stores it, creates
// the import job row and notifies the worker.
type UploadImportUseCase struct {
	jobs    ports.ImportJobStore
	storage ports.ObjectStorage
	queue   ports.MessageQueue
	logger  *slog.Logger
}

func NewUploadImportUseCase(jobs ports.ImportJobStore, storage ports.ObjectStorage, queue ports.MessageQueue, logger *slog.Logger) *UploadImportUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadImportUseCase{
		jobs:    jobs,
		storage: storage,
		queue:   queue,
		logger:  logger,
	}
}

func (uc *UploadImportUseCase) Upload(ctx context.Context, filename, mimeType string, kind domain.ImportKind, body io.Reader) (*domain.ImportJob, error) {
	if filename == "" {
		return nil, domain.WrapError(domain.ErrValidation, "upload import", errors.New("filename is required"))
	}

	now := time.Now().UTC()
	job := &domain.ImportJob{
		ID:        uuid.NewString(),
		Filename:  filename,
		MimeType:  mimeType,
		Kind:      kind,
		Status:    domain.ImportUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.StoragePath = fmt.Sprintf("imports/%s/%s", job.ID, filename)

	if err := uc.storage.Save(ctx, job.StoragePath, body); err != nil {
		return nil, fmt.Errorf("save uploaded file: %w", err)
	}
	if err := uc.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create import job: %w", err)
	}
	if err := uc.queue.PublishImportCreated(ctx, job.ID); err != nil {
		return nil, fmt.Errorf("publish import event: %w", err)
	}

	uc.logger.Info("import uploaded", "import_id", job.ID, "filename", filename, "kind", kind)
	return job, nil
}

// ProcessImportUseCase runs on the worker: load the stored file, parse it into
// records and index them, tracking job status transitions along the way.
type ProcessImportUseCase struct {
	jobs    ports.ImportJobStore
	storage ports.ObjectStorage
	parser  ports.RecordFileParser
	indexer ports.RecordIndexer
	logger  *slog.Logger
}

func NewProcessImportUseCase(jobs ports.ImportJobStore, storage ports.ObjectStorage, parser ports.RecordFileParser, indexer ports.RecordIndexer, logger *slog.Logger) *ProcessImportUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessImportUseCase{
		jobs:    jobs,
		storage: storage,
		parser:  parser,
		indexer: indexer,
		logger:  logger,
	}
}

func (uc *ProcessImportUseCase) ProcessByID(ctx context.Context, importID string) error {
	if err := uc.jobs.UpdateStatus(ctx, importID, domain.ImportProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	report, err := uc.processFile(ctx, importID)
	if err != nil {
		if failErr := uc.jobs.UpdateStatus(ctx, importID, domain.ImportFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.jobs.SaveCounts(ctx, importID, report.Indexed, report.Skipped); err != nil {
		return fmt.Errorf("save counts: %w", err)
	}
	if err := uc.jobs.UpdateStatus(ctx, importID, domain.ImportReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	uc.logger.Info("import processed", "import_id", importID, "indexed", report.Indexed, "skipped", report.Skipped)
	return nil
}

func (uc *ProcessImportUseCase) processFile(ctx context.Context, importID string) (domain.BulkIndexReport, error) {
	job, err := uc.jobs.GetByID(ctx, importID)
	if err != nil {
		return domain.BulkIndexReport{}, fmt.Errorf("fetch import job: %w", err)
	}

	file, err := uc.storage.Open(ctx, job.StoragePath)
	if err != nil {
		return domain.BulkIndexReport{}, fmt.Errorf("open stored file: %w", err)
	}
	defer file.Close()

	records, err := uc.parser.ParseRecords(job.Filename, file)
	if err != nil {
		return domain.BulkIndexReport{}, fmt.Errorf("parse records: %w", err)
	}
	if len(records) == 0 {
		return domain.BulkIndexReport{}, domain.WrapError(domain.ErrValidation, "parse records", errors.New("file contains no records"))
	}

	report, err := uc.indexer.BulkIndex(ctx, records)
	if err != nil {
		return report, fmt.Errorf("index records: %w", err)
	}
	return report, nil
}
