package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/folio/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps a content error to its HTTP status. Unexpected errors are
// logged; the response never carries internal detail.
func writeError(w http.ResponseWriter, op string, err error, attrs ...any) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	case errors.Is(err, apperr.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("content store unavailable"))
	case errors.Is(err, apperr.ErrMalformedMetadata):
		writeJSON(w, http.StatusInternalServerError, errorBody("malformed post"))
	case errors.Is(err, apperr.ErrDuplicateID):
		writeJSON(w, http.StatusInternalServerError, errorBody("duplicate post id"))
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
	attrs = append(attrs, slog.String("error", err.Error()))
	slog.Error(op+" failed", attrs...)
}
