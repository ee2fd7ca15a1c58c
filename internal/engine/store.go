// Package engine opens the DuckDB analytical store.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver

	"duck-commerce/internal/domain"
)

const pingTimeout = 10 * time.Second

// Querier is the subset of *sql.DB and *sql.Conn used for catalog lookups.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// OpenStore opens (creating if needed) the DuckDB file for writing.
// An empty path opens an in-memory database.
func OpenStore(path string) (*sql.DB, error) {
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create store dir: %w", err)
			}
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %s: %w", path, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb %s: %w", path, err)
	}
	return db, nil
}

// OpenReadOnly opens an existing DuckDB file in read-only mode. A missing or
// unopenable file yields a *domain.StoreUnavailableError.
func OpenReadOnly(path string) (*sql.DB, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &domain.StoreUnavailableError{Path: path, Reason: "database file does not exist"}
	}
	if err != nil {
		return nil, &domain.StoreUnavailableError{Path: path, Reason: err.Error()}
	}
	if info.IsDir() {
		return nil, &domain.StoreUnavailableError{Path: path, Reason: "path is a directory"}
	}

	db, err := sql.Open("duckdb", path+"?access_mode=READ_ONLY")
	if err != nil {
		return nil, &domain.StoreUnavailableError{Path: path, Reason: err.Error()}
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &domain.StoreUnavailableError{Path: path, Reason: err.Error()}
	}
	return db, nil
}

// ListTables returns the table names in schema, sorted.
func ListTables(ctx context.Context, q Querier, schema string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name`, schema)
	if err != nil {
		return nil, fmt.Errorf("list tables in %s: %w", schema, err)
	}
	defer rows.Close() //nolint:errcheck

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

