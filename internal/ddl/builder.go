// Package ddl builds DuckDB DDL statements for the raw ingestion schema.
package ddl

import (
	"fmt"
	"strings"
)

// stagePrefix marks tables that hold a replacement while it is being built.
const stagePrefix = "__stage_"

// ColumnDef describes a typed column for CREATE TABLE.
type ColumnDef struct {
	Name string
	Type string
}

// CreateSchemaIfNotExists returns: CREATE SCHEMA IF NOT EXISTS "<name>".
func CreateSchemaIfNotExists(name string) (string, error) {
	if err := ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("invalid schema name: %w", err)
	}
	return fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", QuoteIdentifier(name)), nil
}

// StageTable returns the name of the stage table used while replacing table.
func StageTable(table string) string {
	return stagePrefix + table
}

// CreateTextTable returns a CREATE TABLE statement where every source column is
// VARCHAR, followed by the typed extra columns:
//
//	CREATE TABLE "schema"."table" ("c1" VARCHAR, ..., "x" TIMESTAMP)
func CreateTextTable(schema, table string, columns []string, extra []ColumnDef) (string, error) {
	if err := ValidateIdentifier(schema); err != nil {
		return "", fmt.Errorf("invalid schema name: %w", err)
	}
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("at least one column is required")
	}

	defs := make([]string, 0, len(columns)+len(extra))
	seen := make(map[string]struct{}, len(columns)+len(extra))
	for _, c := range columns {
		if strings.TrimSpace(c) == "" {
			return "", fmt.Errorf("column names must not be blank")
		}
		key := strings.ToLower(c)
		if _, dup := seen[key]; dup {
			return "", fmt.Errorf("duplicate column %q", c)
		}
		seen[key] = struct{}{}
		defs = append(defs, QuoteIdentifier(c)+" VARCHAR")
	}
	for _, c := range extra {
		if err := ValidateIdentifier(c.Name); err != nil {
			return "", fmt.Errorf("invalid column name %q: %w", c.Name, err)
		}
		if err := ValidateColumnType(c.Type); err != nil {
			return "", fmt.Errorf("invalid column type for %q: %w", c.Name, err)
		}
		key := strings.ToLower(c.Name)
		if _, dup := seen[key]; dup {
			return "", fmt.Errorf("column %q collides with a source column", c.Name)
		}
		seen[key] = struct{}{}
		defs = append(defs, QuoteIdentifier(c.Name)+" "+c.Type)
	}

	return fmt.Sprintf("CREATE TABLE %s (%s)", QualifiedName(schema, table), strings.Join(defs, ", ")), nil
}

// ReplaceTableFrom returns:
// CREATE OR REPLACE TABLE "schema"."table" AS SELECT * FROM "schema"."source".
func ReplaceTableFrom(schema, table, source string) (string, error) {
	for _, n := range []string{schema, table, source} {
		if err := ValidateIdentifier(n); err != nil {
			return "", fmt.Errorf("invalid name %q: %w", n, err)
		}
	}
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM %s",
		QualifiedName(schema, table), QualifiedName(schema, source)), nil
}

// DropTableIfExists returns: DROP TABLE IF EXISTS "schema"."table".
func DropTableIfExists(schema, table string) (string, error) {
	if err := ValidateIdentifier(schema); err != nil {
		return "", fmt.Errorf("invalid schema name: %w", err)
	}
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", QualifiedName(schema, table)), nil
}

// CountRows returns: SELECT count(*) FROM "schema"."table".
func CountRows(schema, table string) (string, error) {
	if err := ValidateIdentifier(schema); err != nil {
		return "", fmt.Errorf("invalid schema name: %w", err)
	}
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	return fmt.Sprintf("SELECT count(*) FROM %s", QualifiedName(schema, table)), nil
}
