package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"duck-commerce/internal/domain"
)

// Compile-time check.
var _ domain.RunRepository = (*RunRepo)(nil)

// DefaultRunListLimit caps List when the caller passes a non-positive limit.
const DefaultRunListLimit = 50

// RunRepo implements domain.RunRepository on the SQLite metastore.
type RunRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewRunRepo creates a RunRepo. read may equal write.
func NewRunRepo(write, read *sql.DB) *RunRepo {
	if read == nil {
		read = write
	}
	return &RunRepo{write: write, read: read}
}

// Record stores a finished run and its per-file results in one transaction.
func (r *RunRepo) Record(ctx context.Context, report *domain.Report) error {
	if report.RunID == "" {
		return domain.ErrValidation("run id is required")
	}

	tx, err := r.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ingestion_runs (id, started_at, finished_at, loaded, skipped, failed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		report.RunID, report.StartedAt.UTC(), report.FinishedAt.UTC(),
		report.Loaded(), report.Skipped(), report.Failed())
	if err != nil {
		return mapDBError(err)
	}

	for i, f := range report.Files {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ingestion_files
				(run_id, position, file_name, table_name, status, rows, dropped, encoding, leniency, attempts, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, i, f.Source.FileName, f.Source.Table, string(f.Status),
			f.Rows, f.Dropped, f.Encoding, f.Leniency, len(f.Attempts), f.Reason())
		if err != nil {
			return fmt.Errorf("insert file %s: %w", f.Source.FileName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first, without file details.
func (r *RunRepo) List(ctx context.Context, limit int) ([]domain.IngestionRun, error) {
	if limit <= 0 {
		limit = DefaultRunListLimit
	}
	rows, err := r.read.QueryContext(ctx, `
		SELECT id, started_at, finished_at, loaded, skipped, failed
		FROM ingestion_runs
		ORDER BY started_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var runs []domain.IngestionRun
	for rows.Next() {
		var run domain.IngestionRun
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Loaded, &run.Skipped, &run.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns one run with its files in input order.
func (r *RunRepo) Get(ctx context.Context, id string) (*domain.IngestionRun, error) {
	var run domain.IngestionRun
	err := r.read.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, loaded, skipped, failed
		FROM ingestion_runs WHERE id = ?`, id).
		Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Loaded, &run.Skipped, &run.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("ingestion run %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	rows, err := r.read.QueryContext(ctx, `
		SELECT file_name, table_name, status, rows, dropped, encoding, leniency, attempts, reason
		FROM ingestion_files WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("list run files: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var f domain.IngestionFileRecord
		var status string
		if err := rows.Scan(&f.FileName, &f.Table, &status, &f.Rows, &f.Dropped,
			&f.Encoding, &f.Leniency, &f.Attempts, &f.Reason); err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		f.Status = domain.FileStatus(status)
		run.Files = append(run.Files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &run, nil
}

// Prune deletes runs that started before cutoff and returns how many were removed.
func (r *RunRepo) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.write.ExecContext(ctx, `DELETE FROM ingestion_runs WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}
