package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/devdiary/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error" validate:"required"`
	Kind    string `json:"kind,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// statusFor maps a core error to an HTTP status. Core messages are shown
// to the user verbatim; anything unrecognised is reported as internal.
func statusFor(err error) (int, errResponse) {
	var (
		empty    *apperr.EmptyNoteError
		badDate  *apperr.InvalidDateError
		invalid  *apperr.ValidationError
		unknown  *apperr.UnknownDestinationError
		template *apperr.TemplateNotFoundError
	)
	switch {
	case errors.Is(err, apperr.ErrUnknownSection), errors.As(err, &empty), errors.As(err, &badDate):
		return http.StatusBadRequest, errorBody(err.Error())
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity, errResponse{Error: err.Error(), Kind: string(invalid.Kind)}
	case errors.As(err, &unknown):
		return http.StatusNotFound, errorBody(err.Error())
	case errors.As(err, &template):
		return http.StatusInternalServerError, errorBody(err.Error())
	default:
		return http.StatusInternalServerError, errorBody("internal error")
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(op+" failed", slog.String("error", err.Error()))
	}
	writeJSON(w, status, body)
}
