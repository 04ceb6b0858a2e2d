package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"horizon/internal/core"
	"horizon/internal/middleware/trace"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps domain sentinels onto HTTP statuses. Anything
// unmapped is an internal error with the detail kept out of the response.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrDuplicateEntry):
		writeError(w, http.StatusConflict, "contribution already recorded for this date")
	case errors.Is(err, core.ErrFutureDate):
		writeError(w, http.StatusUnprocessableEntity, "cannot contribute for a future date")
	case errors.Is(err, core.ErrInvalidDate):
		writeError(w, http.StatusUnprocessableEntity, "invalid date, expected YYYY-MM-DD")
	case errors.Is(err, core.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
	case errors.Is(err, core.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "message text is required")
	case errors.Is(err, core.ErrUnknownMember):
		writeError(w, http.StatusNotFound, "unknown member")
	case errors.Is(err, core.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		slog.ErrorContext(r.Context(), "Unhandled error",
			"request_id", trace.GetRequestID(r.Context()),
			"path", r.URL.Path,
			"error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
