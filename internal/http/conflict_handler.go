package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/study-planner/internal/application"
	"github.com/example/study-planner/internal/scheduler"
)

type conflictService interface {
	DetectScheduleConflicts(ctx context.Context, userID string, candidate scheduler.Interval, opts application.ConflictOptions) ([]scheduler.ConflictItem, error)
}

// Candidate kinds accepted by POST /conflicts/check.
const (
	candidatePlanner = "PLANNER"
	candidateExam    = "EXAM"
	candidateEvent   = "EVENT"
)

// ConflictHandler runs a dry conflict check without writing anything.
type ConflictHandler struct {
	service   conflictService
	validator *requestValidator
	responder responder
}

func NewConflictHandler(service conflictService, logger *slog.Logger) *ConflictHandler {
	return &ConflictHandler{
		service:   service,
		validator: newRequestValidator(),
		responder: newResponder(logger),
	}
}

func (h *ConflictHandler) Check(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	if principal.UserID == "" {
		h.responder.handleServiceError(r.Context(), w, application.ErrUnauthorized)
		return
	}

	var req conflictCheckRequest
	if !decodeAndValidate(w, r, h.validator, h.responder, &req) {
		return
	}

	candidate, ok, err := req.candidate()
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	conflicts := []scheduler.ConflictItem{}
	if ok {
		found, err := h.service.DetectScheduleConflicts(r.Context(), principal.UserID, candidate, application.ConflictOptions{
			IgnorePlannerID: req.IgnorePlannerID,
			IgnoreExamID:    req.IgnoreExamID,
			IgnoreEventID:   req.IgnoreEventID,
		})
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		conflicts = found
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, conflictDetails{Conflicts: conflicts})
}

// conflictCheckRequest describes a candidate with the timestamp fields of the
// entity kind it stands for.
type conflictCheckRequest struct {
	Kind            string  `json:"kind" validate:"omitempty,oneof=PLANNER EXAM EVENT planner exam event"`
	StartAt         *string `json:"startAt" validate:"omitempty,rfc3339"`
	EndAt           *string `json:"endAt" validate:"omitempty,rfc3339"`
	DueAt           *string `json:"dueAt" validate:"omitempty,rfc3339"`
	PlannedFor      *string `json:"plannedFor" validate:"omitempty,rfc3339"`
	ExamDate        *string `json:"examDate" validate:"omitempty,rfc3339"`
	DurationMinutes *int    `json:"durationMinutes" validate:"omitempty,min=1"`
	IgnorePlannerID string  `json:"ignorePlannerId"`
	IgnoreExamID    string  `json:"ignoreExamId"`
	IgnoreEventID   string  `json:"ignoreEventId"`
}

// candidate derives the interval to check. ok is false for a planner
// candidate without any timestamp, which never conflicts.
func (r conflictCheckRequest) candidate() (scheduler.Interval, bool, error) {
	kind := strings.ToUpper(strings.TrimSpace(r.Kind))
	if kind == "" {
		kind = candidateEvent
	}

	switch kind {
	case candidatePlanner:
		interval, ok := scheduler.PlannerInterval(scheduler.PlannerTimes{
			StartAt:    optionalTimestamp(r.StartAt),
			DueAt:      optionalTimestamp(r.DueAt),
			PlannedFor: optionalTimestamp(r.PlannedFor),
		})
		return interval, ok, nil
	case candidateExam:
		examDate := optionalTimestamp(r.ExamDate)
		if examDate == nil {
			return scheduler.Interval{}, false, fieldError("examDate", "examDate is a required field")
		}
		return scheduler.ExamInterval(*examDate, r.DurationMinutes), true, nil
	default:
		startAt := optionalTimestamp(r.StartAt)
		if startAt == nil {
			return scheduler.Interval{}, false, fieldError("startAt", "startAt is a required field")
		}
		return scheduler.EventInterval(*startAt, optionalTimestamp(r.EndAt)), true, nil
	}
}

func fieldError(field, message string) *application.ValidationError {
	return &application.ValidationError{FieldErrors: map[string]string{field: message}}
}
