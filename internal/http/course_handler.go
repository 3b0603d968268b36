package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/study-planner/internal/application"
	"github.com/example/study-planner/internal/persistence"
)

type courseService interface {
	CreateSemester(ctx context.Context, principal application.Principal, input application.SemesterInput) (persistence.Semester, error)
	CreateCourse(ctx context.Context, principal application.Principal, input application.CourseInput) (persistence.Course, error)
	DeleteCourse(ctx context.Context, params application.DeleteParams) error
	ListCourses(ctx context.Context, params application.ListCoursesParams) ([]persistence.Course, error)
}

// CourseHandler serves semesters and courses with their weekly sessions.
type CourseHandler struct {
	service   courseService
	validator *requestValidator
	responder responder
}

func NewCourseHandler(service courseService, logger *slog.Logger) *CourseHandler {
	return &CourseHandler{
		service:   service,
		validator: newRequestValidator(),
		responder: newResponder(logger),
	}
}

func (h *CourseHandler) CreateSemester(w http.ResponseWriter, r *http.Request) {
	var req semesterRequest
	if !decodeAndValidate(w, r, h.validator, h.responder, &req) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	semester, err := h.service.CreateSemester(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusCreated, toSemesterDTO(semester))
}

func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if !decodeAndValidate(w, r, h.validator, h.responder, &req) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	course, err := h.service.CreateCourse(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusCreated, toCourseDTO(course))
}

func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := requireResourceID(w, r, h.responder)
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteCourse(r.Context(), application.DeleteParams{Principal: principal, ID: id}); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	values := r.URL.Query()

	courses, err := h.service.ListCourses(r.Context(), application.ListCoursesParams{
		Principal:  principal,
		SemesterID: queryValue(values.Get("semesterId")),
		Weekday:    queryValue(values.Get("weekday")),
		Query:      strings.TrimSpace(values.Get("q")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, toCourseDTOs(courses))
}

func queryValue(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

type semesterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	StartsOn string `json:"startsOn" validate:"required,date"`
	EndsOn   string `json:"endsOn" validate:"required,date"`
}

func (r semesterRequest) toInput() application.SemesterInput {
	startsOn, _ := time.Parse(dateLayout, strings.TrimSpace(r.StartsOn))
	endsOn, _ := time.Parse(dateLayout, strings.TrimSpace(r.EndsOn))
	return application.SemesterInput{
		Name:     r.Name,
		StartsOn: startsOn,
		EndsOn:   endsOn,
	}
}

type sessionRequest struct {
	Weekday   string  `json:"weekday" validate:"required"`
	StartTime string  `json:"startTime" validate:"required,clock"`
	EndTime   string  `json:"endTime" validate:"required,clock"`
	Room      *string `json:"room"`
}

type courseRequest struct {
	SemesterID *string          `json:"semesterId"`
	Code       string           `json:"code" validate:"required,max=32"`
	Title      string           `json:"title" validate:"required,max=200"`
	Instructor *string          `json:"instructor"`
	Color      *string          `json:"color" validate:"omitempty,hexcolor"`
	Sessions   []sessionRequest `json:"sessions" validate:"dive"`
}

func (r courseRequest) toInput() application.CourseInput {
	sessions := make([]application.SessionInput, 0, len(r.Sessions))
	for _, session := range r.Sessions {
		sessions = append(sessions, application.SessionInput{
			Weekday:   session.Weekday,
			StartTime: session.StartTime,
			EndTime:   session.EndTime,
			Room:      session.Room,
		})
	}
	return application.CourseInput{
		SemesterID: r.SemesterID,
		Code:       r.Code,
		Title:      r.Title,
		Instructor: r.Instructor,
		Color:      r.Color,
		Sessions:   sessions,
	}
}
