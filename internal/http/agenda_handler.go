package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/study-planner/internal/application"
	"github.com/example/study-planner/internal/persistence"
)

type agendaService interface {
	CreatePlannerItem(ctx context.Context, params application.CreatePlannerItemParams) (persistence.PlannerItem, error)
	UpdatePlannerItem(ctx context.Context, params application.UpdatePlannerItemParams) (persistence.PlannerItem, error)
	DeletePlannerItem(ctx context.Context, params application.DeleteParams) error
	CreateExam(ctx context.Context, params application.CreateExamParams) (persistence.Exam, error)
	UpdateExam(ctx context.Context, params application.UpdateExamParams) (persistence.Exam, error)
	DeleteExam(ctx context.Context, params application.DeleteParams) error
	CreateEvent(ctx context.Context, params application.CreateEventParams) (persistence.StudentEvent, error)
	UpdateEvent(ctx context.Context, params application.UpdateEventParams) (persistence.StudentEvent, error)
	DeleteEvent(ctx context.Context, params application.DeleteParams) error
}

// AgendaHandler serves planner items, exams and events. Every write is gated
// by the conflict check unless the body sets allowConflicts.
type AgendaHandler struct {
	service   agendaService
	validator *requestValidator
	responder responder
}

func NewAgendaHandler(service agendaService, logger *slog.Logger) *AgendaHandler {
	return &AgendaHandler{
		service:   service,
		validator: newRequestValidator(),
		responder: newResponder(logger),
	}
}

func (h *AgendaHandler) CreatePlannerItem(w http.ResponseWriter, r *http.Request) {
	var req plannerItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	item, err := h.service.CreatePlannerItem(r.Context(), application.CreatePlannerItemParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusCreated, toPlannerItemDTO(item))
}

func (h *AgendaHandler) UpdatePlannerItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resourceID(w, r)
	if !ok {
		return
	}
	var req plannerItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	item, err := h.service.UpdatePlannerItem(r.Context(), application.UpdatePlannerItemParams{
		Principal: principal,
		ID:        id,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, toPlannerItemDTO(item))
}

func (h *AgendaHandler) DeletePlannerItem(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.service.DeletePlannerItem)
}

func (h *AgendaHandler) CreateExam(w http.ResponseWriter, r *http.Request) {
	var req examRequest
	if !h.decode(w, r, &req) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	exam, err := h.service.CreateExam(r.Context(), application.CreateExamParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusCreated, toExamDTO(exam))
}

func (h *AgendaHandler) UpdateExam(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resourceID(w, r)
	if !ok {
		return
	}
	var req examRequest
	if !h.decode(w, r, &req) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	exam, err := h.service.UpdateExam(r.Context(), application.UpdateExamParams{
		Principal: principal,
		ID:        id,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, toExamDTO(exam))
}

func (h *AgendaHandler) DeleteExam(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.service.DeleteExam)
}

func (h *AgendaHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !h.decode(w, r, &req) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	event, err := h.service.CreateEvent(r.Context(), application.CreateEventParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusCreated, toEventDTO(event))
}

func (h *AgendaHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resourceID(w, r)
	if !ok {
		return
	}
	var req eventRequest
	if !h.decode(w, r, &req) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	event, err := h.service.UpdateEvent(r.Context(), application.UpdateEventParams{
		Principal: principal,
		ID:        id,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, toEventDTO(event))
}

func (h *AgendaHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.service.DeleteEvent)
}

func (h *AgendaHandler) delete(w http.ResponseWriter, r *http.Request, remove func(context.Context, application.DeleteParams) error) {
	id, ok := h.resourceID(w, r)
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := remove(r.Context(), application.DeleteParams{Principal: principal, ID: id}); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// decode reads and validates the JSON body, writing the error response when
// it fails.
func (h *AgendaHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeAndValidate(w, r, h.validator, h.responder, dst)
}

func (h *AgendaHandler) resourceID(w http.ResponseWriter, r *http.Request) (string, bool) {
	return requireResourceID(w, r, h.responder)
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, validator *requestValidator, responder responder, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		responder.badRequest(r.Context(), w, errBadRequestBody)
		return false
	}
	if err := validator.check(dst); err != nil {
		responder.handleServiceError(r.Context(), w, err)
		return false
	}
	return true
}

func requireResourceID(w http.ResponseWriter, r *http.Request, responder responder) (string, bool) {
	id, ok := ResourceIDFromContext(r.Context())
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		responder.badRequest(r.Context(), w, errMissingID)
		return "", false
	}
	return id, true
}

type plannerItemRequest struct {
	SemesterID     *string `json:"semesterId"`
	CourseID       *string `json:"courseId"`
	Title          string  `json:"title" validate:"required,max=200"`
	Notes          *string `json:"notes"`
	Status         string  `json:"status"`
	Priority       string  `json:"priority"`
	Cadence        string  `json:"cadence"`
	StartAt        *string `json:"startAt" validate:"omitempty,rfc3339"`
	DueAt          *string `json:"dueAt" validate:"omitempty,rfc3339"`
	PlannedFor     *string `json:"plannedFor" validate:"omitempty,rfc3339"`
	AllowConflicts bool    `json:"allowConflicts"`
}

func (r plannerItemRequest) toInput() application.PlannerItemInput {
	return application.PlannerItemInput{
		SemesterID:     r.SemesterID,
		CourseID:       r.CourseID,
		Title:          r.Title,
		Notes:          r.Notes,
		Status:         r.Status,
		Priority:       r.Priority,
		Cadence:        r.Cadence,
		StartAt:        optionalTimestamp(r.StartAt),
		DueAt:          optionalTimestamp(r.DueAt),
		PlannedFor:     optionalTimestamp(r.PlannedFor),
		AllowConflicts: r.AllowConflicts,
	}
}

type examRequest struct {
	SemesterID      *string `json:"semesterId"`
	CourseID        *string `json:"courseId"`
	Title           string  `json:"title" validate:"required,max=200"`
	Location        *string `json:"location"`
	Notes           *string `json:"notes"`
	ExamDate        string  `json:"examDate" validate:"required,rfc3339"`
	DurationMinutes *int    `json:"durationMinutes" validate:"omitempty,min=1"`
	AllowConflicts  bool    `json:"allowConflicts"`
}

func (r examRequest) toInput() application.ExamInput {
	return application.ExamInput{
		SemesterID:      r.SemesterID,
		CourseID:        r.CourseID,
		Title:           r.Title,
		Location:        r.Location,
		Notes:           r.Notes,
		ExamDate:        requiredTimestamp(r.ExamDate),
		DurationMinutes: r.DurationMinutes,
		AllowConflicts:  r.AllowConflicts,
	}
}

type eventRequest struct {
	Title          string  `json:"title" validate:"required,max=200"`
	Description    *string `json:"description"`
	Location       *string `json:"location"`
	StartAt        string  `json:"startAt" validate:"required,rfc3339"`
	EndAt          *string `json:"endAt" validate:"omitempty,rfc3339"`
	AllowConflicts bool    `json:"allowConflicts"`
}

func (r eventRequest) toInput() application.EventInput {
	return application.EventInput{
		Title:          r.Title,
		Description:    r.Description,
		Location:       r.Location,
		StartAt:        requiredTimestamp(r.StartAt),
		EndAt:          optionalTimestamp(r.EndAt),
		AllowConflicts: r.AllowConflicts,
	}
}
