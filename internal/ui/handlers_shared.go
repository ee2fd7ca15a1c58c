package ui

import (
	"errors"
	"net/http"

	"duck-commerce/internal/domain"
	"duck-commerce/internal/middleware"
)

// renderServiceError maps domain errors onto an error page. An empty store
// is not a server fault: the page tells the operator how to populate it.
func (h *Handler) renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	title := "Unexpected Error"
	message := "An unexpected error occurred while loading this page."
	hint := ""

	var (
		unavailable *domain.StoreUnavailableError
		notFound    *domain.NotFoundError
		validation  *domain.ValidationError
		mismatch    *domain.SchemaMismatchError
	)
	switch {
	case errors.As(err, &unavailable):
		status = http.StatusServiceUnavailable
		title = "No Data Yet"
		message = unavailable.Error()
		hint = "Run `duckc ingest` to load the dataset, then reload this page."
	case errors.As(err, &validation):
		status = http.StatusBadRequest
		title = "Invalid Request"
		message = validation.Error()
	case errors.As(err, &notFound):
		status = http.StatusNotFound
		title = "Not Found"
		message = notFound.Error()
	case errors.As(err, &mismatch):
		title = "Dataset Schema Changed"
		message = mismatch.Error()
		hint = "The ingested files no longer match the dashboard queries."
	}

	if status >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.ErrorContext(r.Context(), "dashboard request failed",
			"path", r.URL.Path,
			"status", status,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"error", err)
	}
	renderHTML(w, status, errorPage(title, message, hint))
}
