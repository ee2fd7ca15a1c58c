// Package ingestion loads raw dataset files into the DuckDB store.
package ingestion

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"duck-commerce/internal/csvload"
	"duck-commerce/internal/ddl"
	"duck-commerce/internal/domain"
	"duck-commerce/internal/provider"
)

// provenanceColumns are appended to every ingested table.
var provenanceColumns = []ddl.ColumnDef{
	{Name: domain.ColumnIngestedAt, Type: "TIMESTAMP"},
	{Name: domain.ColumnSourceFile, Type: "VARCHAR"},
}

// Loader materializes source files as tables in the raw schema. Each table is
// replaced wholesale inside one transaction, so a failed file never leaves a
// partially written table behind.
type Loader struct {
	store    *sql.DB
	provider domain.DatasetProvider
	parser   *csvload.Parser
	runs     domain.RunRepository
	logger   *slog.Logger
	now      func() time.Time
	cleanup  bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithRunRepository records every run in the metastore.
func WithRunRepository(r domain.RunRepository) Option {
	return func(l *Loader) { l.runs = r }
}

// WithParser overrides the default fallback ladder parser.
func WithParser(p *csvload.Parser) Option {
	return func(l *Loader) { l.parser = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// WithCleanup removes the provider's local cache after the run.
func WithCleanup(enabled bool) Option {
	return func(l *Loader) { l.cleanup = enabled }
}

// NewLoader creates a Loader writing to store.
func NewLoader(store *sql.DB, datasets domain.DatasetProvider, logger *slog.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{
		store:    store,
		provider: datasets,
		logger:   logger,
		now:      time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	if l.parser == nil {
		l.parser = csvload.NewParser(nil, logger)
	}
	return l
}

// Ingest loads every file in order. Per-file failures are reported in the
// returned Report and never abort sibling files; the error return is reserved
// for failures of the store itself.
func (l *Loader) Ingest(ctx context.Context, files []domain.SourceFile) (*domain.Report, error) {
	if len(files) == 0 {
		return nil, domain.ErrValidation("no source files to ingest")
	}

	report := &domain.Report{
		RunID:     uuid.NewString(),
		StartedAt: l.now().UTC(),
		Files:     make([]domain.FileResult, 0, len(files)),
	}

	conn, err := l.store.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire store connection: %w", err)
	}
	defer conn.Close() //nolint:errcheck

	createSchema, err := ddl.CreateSchemaIfNotExists(domain.RawSchema)
	if err != nil {
		return nil, err
	}
	if _, err := conn.ExecContext(ctx, createSchema); err != nil {
		return nil, fmt.Errorf("create schema %s: %w", domain.RawSchema, err)
	}

	l.logger.Info("ingestion started", "run_id", report.RunID, "files", len(files), "provider", l.provider.Describe())

	for _, src := range files {
		var res domain.FileResult
		if err := ctx.Err(); err != nil {
			res = domain.FileResult{Source: src, Status: domain.FileFailed, AttemptIndex: -1, Err: err}
		} else {
			res = l.ingestFile(ctx, conn, src)
		}
		l.logResult(res)
		report.Files = append(report.Files, res)
	}
	report.FinishedAt = l.now().UTC()

	l.logger.Info("ingestion finished", "run_id", report.RunID, "summary", report.Summary())

	if l.runs != nil {
		if err := l.runs.Record(context.WithoutCancel(ctx), report); err != nil {
			l.logger.Warn("failed to record ingestion run", "run_id", report.RunID, "error", err)
		}
	}
	if l.cleanup {
		if c, ok := l.provider.(provider.Cleaner); ok {
			if err := c.Cleanup(); err != nil {
				l.logger.Warn("failed to clean up dataset cache", "error", err)
			} else {
				l.logger.Info("dataset cache removed")
			}
		}
	}

	return report, nil
}

func (l *Loader) ingestFile(ctx context.Context, conn *sql.Conn, src domain.SourceFile) domain.FileResult {
	res := domain.FileResult{Source: src, AttemptIndex: -1}

	if err := ddl.ValidateIdentifier(src.Table); err != nil {
		res.Status = domain.FileFailed
		res.Err = fmt.Errorf("invalid table name %q: %w", src.Table, err)
		return res
	}

	data, err := l.resolve(ctx, src.FileName)
	if err != nil {
		res.Status = domain.FileSkipped
		res.Err = &domain.ResolutionError{File: src.FileName, Err: err}
		return res
	}

	parsed, err := l.parser.Parse(src.FileName, data)
	if err != nil {
		var pe *domain.ParseExhaustedError
		if errors.As(err, &pe) {
			res.Attempts = pe.Attempts
		}
		res.Status = domain.FileFailed
		res.Err = err
		return res
	}
	res.Attempts = parsed.Tried
	res.AttemptIndex = parsed.AttemptIndex
	res.Encoding = parsed.Attempt.Encoding
	res.Leniency = parsed.Attempt.Leniency
	res.Dropped = parsed.Dropped

	rows, err := l.replaceTable(ctx, conn, src, parsed.Table, l.now().UTC())
	if err != nil {
		res.Status = domain.FileFailed
		res.Err = fmt.Errorf("load %s.%s: %w", domain.RawSchema, src.Table, err)
		return res
	}
	res.Status = domain.FileLoaded
	res.Rows = rows
	return res
}

func (l *Loader) resolve(ctx context.Context, name string) ([]byte, error) {
	rc, err := l.provider.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// replaceTable builds raw.__stage_<table>, swaps it in with CREATE OR REPLACE
// and drops the stage, all in one transaction. It returns the committed row count.
func (l *Loader) replaceTable(ctx context.Context, conn *sql.Conn, src domain.SourceFile, table *csvload.Table, ingestedAt time.Time) (int64, error) {
	stage := ddl.StageTable(src.Table)

	dropStage, err := ddl.DropTableIfExists(domain.RawSchema, stage)
	if err != nil {
		return 0, err
	}
	createStage, err := ddl.CreateTextTable(domain.RawSchema, stage, table.Header, provenanceColumns)
	if err != nil {
		return 0, err
	}
	replace, err := ddl.ReplaceTableFrom(domain.RawSchema, src.Table, stage)
	if err != nil {
		return 0, err
	}
	count, err := ddl.CountRows(domain.RawSchema, src.Table)
	if err != nil {
		return 0, err
	}

	if _, err := conn.ExecContext(ctx, `BEGIN TRANSACTION`); err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	rollback := func(cause error) (int64, error) {
		rollbackTx(ctx, conn)
		return 0, cause
	}

	if _, err := conn.ExecContext(ctx, dropStage); err != nil {
		return rollback(fmt.Errorf("drop stale stage: %w", err))
	}
	if _, err := conn.ExecContext(ctx, createStage); err != nil {
		return rollback(fmt.Errorf("create stage: %w", err))
	}

	err = conn.Raw(func(raw any) error {
		driverConn, ok := raw.(driver.Conn)
		if !ok {
			return fmt.Errorf("unexpected raw conn type %T", raw)
		}

		appender, err := duckdb.NewAppenderFromConn(driverConn, domain.RawSchema, stage)
		if err != nil {
			return fmt.Errorf("create appender: %w", err)
		}
		defer func() { _ = appender.Close() }()

		width := len(table.Header)
		values := make([]driver.Value, width+len(provenanceColumns))
		for i, row := range table.Rows {
			for c := 0; c < width; c++ {
				values[c] = nil
				if c < len(row) && row[c] != nil {
					values[c] = *row[c]
				}
			}
			values[width] = ingestedAt
			values[width+1] = src.FileName
			if err := appender.AppendRow(values...); err != nil {
				return fmt.Errorf("append row %d: %w", i+1, err)
			}
		}
		if err := appender.Flush(); err != nil {
			return fmt.Errorf("flush appender: %w", err)
		}
		return nil
	})
	if err != nil {
		return rollback(err)
	}

	if _, err := conn.ExecContext(ctx, replace); err != nil {
		return rollback(fmt.Errorf("replace table: %w", err))
	}
	if _, err := conn.ExecContext(ctx, dropStage); err != nil {
		return rollback(fmt.Errorf("drop stage: %w", err))
	}
	if _, err := conn.ExecContext(ctx, `COMMIT`); err != nil {
		return rollback(fmt.Errorf("commit transaction: %w", err))
	}

	var rows int64
	if err := conn.QueryRowContext(ctx, count).Scan(&rows); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return rows, nil
}

// rollbackTx aborts the open transaction on conn. It runs even when ctx is
// already cancelled, otherwise the pooled connection would stay inside the
// transaction.
func rollbackTx(ctx context.Context, conn *sql.Conn) {
	_, _ = conn.ExecContext(context.WithoutCancel(ctx), `ROLLBACK`)
}

func (l *Loader) logResult(res domain.FileResult) {
	switch res.Status {
	case domain.FileLoaded:
		l.logger.Info("table loaded",
			"table", domain.RawSchema+"."+res.Source.Table,
			"file", res.Source.FileName,
			"rows", res.Rows,
			"dropped", res.Dropped,
			"encoding", res.Encoding,
			"leniency", res.Leniency,
			"attempt", res.AttemptIndex+1)
	case domain.FileSkipped:
		l.logger.Warn("source file skipped", "file", res.Source.FileName, "table", res.Source.Table, "reason", res.Reason())
	default:
		l.logger.Warn("source file failed", "file", res.Source.FileName, "table", res.Source.Table,
			"attempts", len(res.Attempts), "reason", res.Reason())
	}
}
