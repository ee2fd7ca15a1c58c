package cli

import (
	"strconv"
	"time"

	"duck-commerce/internal/domain"
)

type fileView struct {
	File     string `json:"file" yaml:"file"`
	Table    string `json:"table" yaml:"table"`
	Status   string `json:"status" yaml:"status"`
	Rows     int64  `json:"rows" yaml:"rows"`
	Dropped  int    `json:"dropped_rows" yaml:"dropped_rows"`
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Leniency string `json:"leniency,omitempty" yaml:"leniency,omitempty"`
	Attempts int    `json:"attempts" yaml:"attempts"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

type runView struct {
	ID         string     `json:"id" yaml:"id"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time  `json:"finished_at" yaml:"finished_at"`
	Loaded     int        `json:"loaded" yaml:"loaded"`
	Skipped    int        `json:"skipped" yaml:"skipped"`
	Failed     int        `json:"failed" yaml:"failed"`
	Files      []fileView `json:"files,omitempty" yaml:"files,omitempty"`
}

func reportView(r *domain.Report) runView {
	v := runView{
		ID:         r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Loaded:     r.Loaded(),
		Skipped:    r.Skipped(),
		Failed:     r.Failed(),
		Files:      make([]fileView, 0, len(r.Files)),
	}
	for _, f := range r.Files {
		v.Files = append(v.Files, fileView{
			File:     f.Source.FileName,
			Table:    f.Source.Table,
			Status:   string(f.Status),
			Rows:     f.Rows,
			Dropped:  f.Dropped,
			Encoding: f.Encoding,
			Leniency: f.Leniency,
			Attempts: len(f.Attempts),
			Reason:   f.Reason(),
		})
	}
	return v
}

func storedRunView(r domain.IngestionRun) runView {
	v := runView{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Loaded:     r.Loaded,
		Skipped:    r.Skipped,
		Failed:     r.Failed,
	}
	for _, f := range r.Files {
		v.Files = append(v.Files, fileView{
			File:     f.FileName,
			Table:    f.Table,
			Status:   string(f.Status),
			Rows:     f.Rows,
			Dropped:  f.Dropped,
			Encoding: f.Encoding,
			Leniency: f.Leniency,
			Attempts: f.Attempts,
			Reason:   f.Reason,
		})
	}
	return v
}

func fileRows(files []fileView) [][]string {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{
			f.File,
			f.Table,
			f.Status,
			strconv.FormatInt(f.Rows, 10),
			strconv.Itoa(f.Dropped),
			attemptLabel(f),
			f.Reason,
		})
	}
	return rows
}

var fileHeaders = []string{"FILE", "TABLE", "STATUS", "ROWS", "DROPPED", "ATTEMPT", "REASON"}

func attemptLabel(f fileView) string {
	if f.Encoding == "" {
		return "-"
	}
	return f.Encoding + "/" + f.Leniency
}
