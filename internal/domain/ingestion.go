package domain

import (
	"fmt"
	"time"
)

// Provenance column names injected into every ingested table.
const (
	ColumnIngestedAt = "_ingested_at"
	ColumnSourceFile = "_source_file"
)

// RawSchema is the schema holding one table per source file.
const RawSchema = "raw"

// FileStatus is the terminal state of a source file within one ingestion run.
type FileStatus string

// Terminal file states.
const (
	FileLoaded  FileStatus = "loaded"
	FileSkipped FileStatus = "skipped"
	FileFailed  FileStatus = "failed"
)

// Attempt identifies one rung of the fallback ladder.
type Attempt struct {
	Encoding string `json:"encoding"`
	Leniency string `json:"leniency"`
}

func (a Attempt) String() string {
	return a.Encoding + "/" + a.Leniency
}

// FileResult describes the outcome of ingesting one source file.
type FileResult struct {
	Source       SourceFile
	Status       FileStatus
	Rows         int64
	Dropped      int
	Encoding     string
	Leniency     string
	AttemptIndex int // zero-based index of the accepted attempt, -1 when none
	Attempts     []Attempt
	Err          error
}

// Reason returns the failure reason, or "" for loaded files.
func (r FileResult) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Report summarizes one ingestion run. Files keep the input order.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Files      []FileResult
}

func (r *Report) count(s FileStatus) int {
	n := 0
	for i := range r.Files {
		if r.Files[i].Status == s {
			n++
		}
	}
	return n
}

// Loaded returns the number of files loaded.
func (r *Report) Loaded() int { return r.count(FileLoaded) }

// Skipped returns the number of files skipped on resolution.
func (r *Report) Skipped() int { return r.count(FileSkipped) }

// Failed returns the number of files whose parse or load failed.
func (r *Report) Failed() int { return r.count(FileFailed) }

// OK reports whether every file was loaded.
func (r *Report) OK() bool { return r.Loaded() == len(r.Files) }

// Result looks up the result for a file name.
func (r *Report) Result(fileName string) (FileResult, bool) {
	for i := range r.Files {
		if r.Files[i].Source.FileName == fileName {
			return r.Files[i], true
		}
	}
	return FileResult{}, false
}

// Summary renders a one-line description of the run.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d loaded, %d skipped, %d failed in %s",
		r.Loaded(), r.Skipped(), r.Failed(), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
}

// IngestionRun is a persisted ingestion run as listed from the metastore.
type IngestionRun struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Loaded     int
	Skipped    int
	Failed     int
	Files      []IngestionFileRecord
}

// IngestionFileRecord is the persisted form of a FileResult.
type IngestionFileRecord struct {
	FileName string
	Table    string
	Status   FileStatus
	Rows     int64
	Dropped  int
	Encoding string
	Leniency string
	Attempts int
	Reason   string
}
