package ui

import (
	"fmt"
	"time"

	"duck-commerce/internal/domain"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func runStatusTone(run domain.IngestionRun) (string, string) {
	switch {
	case run.Failed > 0:
		return "failed", "danger"
	case run.Skipped > 0:
		return "partial", "attention"
	default:
		return "ok", "success"
	}
}

func runsPage(runs []domain.IngestionRun) Node {
	if len(runs) == 0 {
		return appPage("Ingestion Runs", "runs", "", emptyStateCard("No ingestion runs recorded. Run `duckc ingest` to load the dataset."))
	}
	rows := make([]Node, 0, len(runs))
	for _, run := range runs {
		status, tone := runStatusTone(run)
		rows = append(rows, Tr(
			Td(A(Href("/runs/"+run.ID), Code(Text(run.ID)))),
			Td(Text(formatTime(run.StartedAt))),
			Td(Text(run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String())),
			Td(Class("num"), Text(fmt.Sprintf("%d", run.Loaded))),
			Td(Class("num"), Text(fmt.Sprintf("%d", run.Skipped))),
			Td(Class("num"), Text(fmt.Sprintf("%d", run.Failed))),
			Td(statusLabel(status, tone)),
		))
	}
	return appPage("Ingestion Runs", "runs", "",
		Div(Class(cardClass("table-wrap")),
			Table(Class("data-table"),
				THead(Tr(Th(Text("Run")), Th(Text("Started")), Th(Text("Duration")), Th(Text("Loaded")), Th(Text("Skipped")), Th(Text("Failed")), Th(Text("Status")))),
				TBody(Group(rows)),
			),
		),
	)
}

func runDetailPage(run *domain.IngestionRun) Node {
	status, tone := runStatusTone(*run)
	rows := make([]Node, 0, len(run.Files))
	for _, f := range run.Files {
		tone := "success"
		switch f.Status {
		case domain.FileSkipped:
			tone = "attention"
		case domain.FileFailed:
			tone = "danger"
		}
		rows = append(rows, Tr(
			Td(Text(f.FileName)),
			Td(Code(Text(domain.RawSchema+"."+f.Table))),
			Td(statusLabel(string(f.Status), tone)),
			Td(Class("num"), Text(formatCount(f.Rows))),
			Td(Class("num"), Text(formatCount(int64(f.Dropped)))),
			Td(Text(dashIfEmpty(f.Encoding))),
			Td(Text(dashIfEmpty(f.Leniency))),
			Td(Class("num"), Text(fmt.Sprintf("%d", f.Attempts))),
			Td(Class("reason"), Text(dashIfEmpty(f.Reason))),
		))
	}
	return appPage("Run "+run.ID, "runs", "",
		Div(Class(cardClass()),
			P(Text("Started: "+formatTime(run.StartedAt))),
			P(Text("Finished: "+formatTime(run.FinishedAt))),
			P(Text("Outcome: "), statusLabel(status, tone)),
		),
		Div(Class(cardClass("table-wrap")),
			Table(Class("data-table"),
				THead(Tr(Th(Text("File")), Th(Text("Table")), Th(Text("Status")), Th(Text("Rows")), Th(Text("Dropped")),
					Th(Text("Encoding")), Th(Text("Leniency")), Th(Text("Attempts")), Th(Text("Reason")))),
				TBody(Group(rows)),
			),
		),
	)
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
