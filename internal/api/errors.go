package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"duck-commerce/internal/domain"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFromDomainError maps domain errors to an HTTP status and error code.
func statusFromDomainError(err error) (int, string) {
	var (
		unavailable *domain.StoreUnavailableError
		notFound    *domain.NotFoundError
		validation  *domain.ValidationError
		mismatch    *domain.SchemaMismatchError
	)
	switch {
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	case errors.As(err, &validation):
		return http.StatusBadRequest, "invalid_request"
	case errors.As(err, &notFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &mismatch):
		return http.StatusInternalServerError, "schema_mismatch"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFromDomainError(err)
	msg := err.Error()
	if code == "internal" {
		msg = "internal error"
	}
	if status >= http.StatusInternalServerError && h.logger != nil {
		h.logger.ErrorContext(r.Context(), "api request failed", "path", r.URL.Path, "code", code, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: msg})
}
