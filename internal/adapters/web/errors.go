package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"aura-finance/internal/ai"
	"aura-finance/internal/app"
	"aura-finance/internal/core"
	"aura-finance/internal/logger"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// notImplemented is a stub handler that returns HTTP 501 JSON.
func notImplemented(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, "not implemented", "NOT_IMPLEMENTED", http.StatusNotImplemented)
}

// writeServiceError maps application and domain errors to HTTP responses.
// Storage failures are logged and reported with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var extErr *ai.ExtractionError
	switch {
	case errors.Is(err, ai.ErrUnsupportedMedia):
		writeError(w, r, err.Error(), "UNSUPPORTED_TYPE", http.StatusUnsupportedMediaType)
	case errors.As(err, &extErr):
		status := http.StatusUnprocessableEntity
		if extErr.Op == "request" || extErr.Op == "transcribe" {
			status = http.StatusBadGateway
		}
		writeError(w, r, err.Error(), "EXTRACTION_FAILED", status)
	case errors.Is(err, app.ErrExtractionUnavailable):
		writeError(w, r, err.Error(), "EXTRACTION_UNAVAILABLE", http.StatusServiceUnavailable)
	case errors.Is(err, app.ErrValidation):
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, r, "invalid username or password", "UNAUTHORIZED", http.StatusUnauthorized)
	case errors.Is(err, app.ErrNoDraft):
		writeError(w, r, "no extracted invoice to work with; analyze a document first", "NO_DRAFT", http.StatusNotFound)
	case errors.Is(err, app.ErrRender):
		writeError(w, r, err.Error(), "RENDER_FAILED", http.StatusInternalServerError)
	case errors.Is(err, core.ErrDuplicateInvoice):
		writeError(w, r, "an invoice with this number already exists", "DUPLICATE_INVOICE", http.StatusConflict)
	case errors.Is(err, core.ErrDuplicateUser):
		writeError(w, r, "this username is already registered", "DUPLICATE_USER", http.StatusConflict)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, "not found", "NOT_FOUND", http.StatusNotFound)
	default:
		log := logger.WithRequestID(requestIDFromContext(r.Context()))
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, r, "internal error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
