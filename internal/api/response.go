package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/RedouaeElalami/chutney/internal/action"
	"github.com/RedouaeElalami/chutney/internal/dataset"
	"github.com/RedouaeElalami/chutney/internal/engine"
	"github.com/RedouaeElalami/chutney/internal/environment"
	"github.com/RedouaeElalami/chutney/internal/history"
)

const maxBodyBytes = 1 << 20

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps a service error onto a status code. Unexpected
// errors are logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var vErr *action.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid action inputs", Details: vErr.Errors})
		return
	}
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, action.ErrConfiguration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, action.ErrUnknownType),
		errors.Is(err, environment.ErrNotFound),
		errors.Is(err, environment.ErrTargetNotFound),
		errors.Is(err, history.ErrNotFound),
		errors.Is(err, dataset.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, environment.ErrInvalidName),
		errors.Is(err, dataset.ErrInvalidName),
		errors.Is(err, engine.ErrMissingEnvironment):
		return http.StatusBadRequest
	case errors.Is(err, environment.ErrAlreadyExisting):
		return http.StatusConflict
	case errors.Is(err, engine.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, engine.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %s", err)
	}
	return nil
}
