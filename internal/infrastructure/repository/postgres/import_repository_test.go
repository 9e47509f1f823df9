package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/answerforge/rfp-engine/internal/core/domain"
)

func TestCreateInsertsAllColumns(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	job := &domain.ImportJob{
		ID:          "job-1",
		Filename:    "knowledge.json",
		MimeType:    "application/json",
		StoragePath: "imports/job-1/knowledge.json",
		Kind:        domain.ImportRecords,
		Status:      domain.ImportUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mock.ExpectExec(`INSERT INTO import_jobs`).
		WithArgs(job.ID, job.Filename, job.MimeType, job.StoragePath, "records", "uploaded",
			0, 0, "", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewImportRepository(db).Create(context.Background(), job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDScansJob(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "filename", "mime_type", "storage_path", "kind", "status",
		"indexed", "skipped", "error_message", "created_at", "updated_at",
	}).AddRow("job-1", "knowledge.csv", "text/csv", "imports/job-1/knowledge.csv",
		"records", "ready", 12, 3, "", now, now)

	mock.ExpectQuery(`SELECT .+ FROM import_jobs`).
		WithArgs("job-1").
		WillReturnRows(rows)

	job, err := NewImportRepository(db).GetByID(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if job.Status != domain.ImportReady || job.Indexed != 12 || job.Skipped != 3 {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.Kind != domain.ImportRecords {
		t.Errorf("kind = %q, want records", job.Kind)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM import_jobs`).
		WithArgs("absent").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewImportRepository(db).GetByID(context.Background(), "absent")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestUpdateStatusAndCounts(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE import_jobs\s+SET status`).
		WithArgs("job-1", "failed", "parse error", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE import_jobs\s+SET indexed`).
		WithArgs("job-1", 7, 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewImportRepository(db)
	ctx := context.Background()
	if err := repo.UpdateStatus(ctx, "job-1", domain.ImportFailed, "parse error"); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if err := repo.SaveCounts(ctx, "job-1", 7, 2); err != nil {
		t.Fatalf("SaveCounts() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchemaRunsInLockedTx(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(int64(2026083001)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS import_jobs`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := NewImportRepository(db).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
