// Package domain defines core types, interfaces, and errors for the analytics platform.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSourceNotFound is wrapped by providers when a source file does not exist.
var ErrSourceNotFound = errors.New("source file not found")

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ResolutionError indicates the dataset provider could not supply a source file.
// The loader treats it as a soft failure: the file is skipped and the run continues.
type ResolutionError struct {
	File string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.File, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ParseExhaustedError indicates every (encoding, leniency) attempt failed for a file.
type ParseExhaustedError struct {
	File     string
	Attempts []Attempt
	Last     error
}

func (e *ParseExhaustedError) Error() string {
	tried := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		tried = append(tried, a.String())
	}
	return fmt.Sprintf("parse %s: all %d attempts failed [%s]: %v",
		e.File, len(e.Attempts), strings.Join(tried, ", "), e.Last)
}

func (e *ParseExhaustedError) Unwrap() error { return e.Last }

// StoreUnavailableError indicates queries were issued before the store was populated.
type StoreUnavailableError struct {
	Path   string
	Reason string
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("analytics store not available at %s (%s): run the ingestion first with `duckc ingest`", e.Path, e.Reason)
}

// SchemaMismatchError wraps an engine error caused by a column the query expects
// but the ingested table no longer has. It is never retried.
type SchemaMismatchError struct {
	Op  string
	Err error
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s: schema mismatch: %v", e.Op, e.Err)
}

func (e *SchemaMismatchError) Unwrap() error { return e.Err }

// IsStoreUnavailable reports whether err is (or wraps) a StoreUnavailableError.
func IsStoreUnavailable(err error) bool {
	var su *StoreUnavailableError
	return errors.As(err, &su)
}
