package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/study-planner/internal/application"
	"github.com/example/study-planner/internal/scheduler"
)

// Error codes carried in the error envelope.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNotFound         = "NOT_FOUND"
	CodeAlreadyExists    = "ALREADY_EXISTS"
	CodeScheduleConflict = "SCHEDULE_CONFLICT"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL_ERROR"
)

var (
	errBadRequestBody     = errors.New("request body is not valid JSON")
	errMissingID          = errors.New("resource id is required")
	errMissingOwner       = errors.New("owner identity is required")
	errStorageUnavailable = errors.New("storage is unavailable")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeData(ctx context.Context, w http.ResponseWriter, status int, data any) {
	r.writeJSON(ctx, w, status, successResponse{Success: true, Data: data})
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, code string, err error, details any) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
	}
	r.writeJSON(ctx, w, status, errorResponse{Error: errorBody{Code: code, Message: message, Details: details}})
}

func (r responder) badRequest(ctx context.Context, w http.ResponseWriter, err error) {
	r.loggerFor(ctx).WarnContext(ctx, "bad request", "error", err)
	r.writeError(ctx, w, http.StatusBadRequest, CodeBadRequest, err, nil)
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, CodeInternal, errors.New("unknown error"), nil)
		return
	}

	var (
		conflictErr *application.ConflictError
		vErr        *application.ValidationError
	)
	switch {
	case errors.As(err, &conflictErr):
		r.writeError(ctx, w, http.StatusConflict, CodeScheduleConflict, errors.New("the entry overlaps existing schedule items"),
			conflictDetails{Conflicts: conflictErr.Conflicts})
	case errors.As(err, &vErr):
		r.writeError(ctx, w, http.StatusUnprocessableEntity, CodeValidation, errors.New("input is invalid"),
			validationDetails{Fields: vErr.FieldErrors})
	case errors.Is(err, application.ErrUnauthorized):
		r.writeError(ctx, w, http.StatusUnauthorized, CodeUnauthorized, errMissingOwner, nil)
	case errors.Is(err, application.ErrNotFound):
		r.writeError(ctx, w, http.StatusNotFound, CodeNotFound, errors.New("resource not found"), nil)
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeError(ctx, w, http.StatusConflict, CodeAlreadyExists, errors.New("resource already exists"), nil)
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "error", err, "error_kind", application.ErrorKind(err))
		r.writeError(ctx, w, http.StatusInternalServerError, CodeInternal, errors.New("internal server error"), nil)
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type conflictDetails struct {
	Conflicts []scheduler.ConflictItem `json:"conflicts"`
}

type validationDetails struct {
	Fields map[string]string `json:"fields"`
}
