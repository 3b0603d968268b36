package http

import (
	"context"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/example/study-planner/internal/application"
	"github.com/example/study-planner/internal/recurrence"
)

type calendarService interface {
	ProjectCalendar(ctx context.Context, params application.CalendarParams) (application.CalendarView, error)
	ExpandSessions(ctx context.Context, params application.CalendarParams) ([]recurrence.Occurrence, error)
	ExportICS(ctx context.Context, params application.CalendarParams) ([]byte, error)
}

// CalendarHandler serves range projections as JSON and as iCalendar.
type CalendarHandler struct {
	service   calendarService
	validator *requestValidator
	responder responder
	logger    *slog.Logger
}

func NewCalendarHandler(service calendarService, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{
		service:   service,
		validator: newRequestValidator(),
		responder: newResponder(logger),
		logger:    defaultLogger(logger),
	}
}

func (h *CalendarHandler) Project(w http.ResponseWriter, r *http.Request) {
	params, ok := h.params(w, r)
	if !ok {
		return
	}

	view, err := h.service.ProjectCalendar(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, toCalendarDTO(view))
}

func (h *CalendarHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	params, ok := h.params(w, r)
	if !ok {
		return
	}

	occurrences, err := h.service.ExpandSessions(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, toOccurrenceDTOs(occurrences))
}

// ExportICS writes the calendar document. The ETag is the BLAKE2b-256 digest
// of the body, so an unchanged range answers If-None-Match with 304.
func (h *CalendarHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	params, ok := h.params(w, r)
	if !ok {
		return
	}

	body, err := h.service.ExportICS(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	etag := bodyETag(body)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, no-cache")
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		handlerLogger(r.Context(), h.logger, "CalendarHandler", "ExportICS").
			ErrorContext(r.Context(), "failed to write calendar", "error", err)
	}
}

func (h *CalendarHandler) params(w http.ResponseWriter, r *http.Request) (application.CalendarParams, bool) {
	query := newCalendarQuery(r.URL.Query())
	if err := h.validator.check(&query); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return application.CalendarParams{}, false
	}

	principal, _ := PrincipalFromContext(r.Context())
	return application.CalendarParams{
		Principal:  principal,
		From:       requiredTimestamp(query.From),
		To:         requiredTimestamp(query.To),
		SemesterID: queryValue(query.SemesterID),
		CourseID:   queryValue(query.CourseID),
		Status:     queryValue(query.Status),
		Query:      strings.TrimSpace(query.Query),
	}, true
}

type calendarQuery struct {
	From       string `json:"from" validate:"required,rfc3339"`
	To         string `json:"to" validate:"required,rfc3339"`
	SemesterID string `json:"semesterId"`
	CourseID   string `json:"courseId"`
	Status     string `json:"status"`
	Query      string `json:"q"`
}

func newCalendarQuery(values url.Values) calendarQuery {
	return calendarQuery{
		From:       strings.TrimSpace(values.Get("from")),
		To:         strings.TrimSpace(values.Get("to")),
		SemesterID: values.Get("semesterId"),
		CourseID:   values.Get("courseId"),
		Status:     values.Get("status"),
		Query:      values.Get("q"),
	}
}

func bodyETag(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
