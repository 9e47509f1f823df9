package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/answerforge/rfp-engine/internal/core/domain"
)

type ImportRepository struct {
	db *sql.DB
}

func NewImportRepository(db *sql.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ImportRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS import_jobs (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	kind TEXT NOT NULL,
	status TEXT NOT NULL,
	indexed INTEGER NOT NULL DEFAULT 0,
	skipped INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_import_jobs_status ON import_jobs(status);
CREATE INDEX IF NOT EXISTS idx_import_jobs_created_at ON import_jobs(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ImportRepository) Create(ctx context.Context, job *domain.ImportJob) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO import_jobs (
	id, filename, mime_type, storage_path, kind, status, indexed, skipped, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		job.ID, job.Filename, job.MimeType, job.StoragePath, string(job.Kind), string(job.Status),
		job.Indexed, job.Skipped, job.Error, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrStore, "insert import job", err)
	}
	return nil
}

func (r *ImportRepository) GetByID(ctx context.Context, id string) (*domain.ImportJob, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, mime_type, storage_path, kind, status, indexed, skipped, error_message, created_at, updated_at
FROM import_jobs
WHERE id = $1
`, id)

	var job domain.ImportJob
	var kind, status string

	err := row.Scan(
		&job.ID, &job.Filename, &job.MimeType, &job.StoragePath, &kind, &status,
		&job.Indexed, &job.Skipped, &job.Error, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get import job",
				fmt.Errorf("import job not found: %s", id))
		}
		return nil, domain.WrapError(domain.ErrStore, "scan import job", err)
	}

	job.Kind = domain.ImportKind(kind)
	job.Status = domain.ImportStatus(status)
	return &job, nil
}

func (r *ImportRepository) UpdateStatus(ctx context.Context, id string, status domain.ImportStatus, errMessage string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE import_jobs
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return domain.WrapError(domain.ErrStore, "update import status", err)
	}
	return nil
}

func (r *ImportRepository) SaveCounts(ctx context.Context, id string, indexed, skipped int) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE import_jobs
SET indexed = $2, skipped = $3, updated_at = $4
WHERE id = $1
`, id, indexed, skipped, time.Now().UTC())
	if err != nil {
		return domain.WrapError(domain.ErrStore, "save import counts", err)
	}
	return nil
}
