package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/study-planner/internal/ics"
	"github.com/example/study-planner/internal/persistence"
	"github.com/example/study-planner/internal/recurrence"
	"github.com/example/study-planner/internal/scheduler"
)

const uidDomain = "study-planner"

// stampEpoch is the DTSTAMP of an export without rows.
var stampEpoch = time.Unix(0, 0).UTC()

// CalendarService projects the owner's entries onto a date range.
type CalendarService struct {
	reader ScheduleReader
	engine *recurrence.Engine
	prodID string
	logger *slog.Logger
}

// NewCalendarService constructs a calendar service. A nil engine expands
// without a range bound.
func NewCalendarService(reader ScheduleReader, engine *recurrence.Engine, logger *slog.Logger) *CalendarService {
	if engine == nil {
		engine = recurrence.NewEngine(0)
	}
	return &CalendarService{
		reader: reader,
		engine: engine,
		prodID: ics.DefaultProdID,
		logger: defaultLogger(logger),
	}
}

func (s *CalendarService) loggerWith(ctx context.Context, operation string, params CalendarParams) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CalendarService", operation,
		"principal_id", params.Principal.UserID,
		"from", scheduler.FormatTimestamp(params.From),
		"to", scheduler.FormatTimestamp(params.To),
	)
}

// ProjectCalendar returns the planner items, exams, events and weekly
// sessions intersecting the range. Planner items match when any of their
// timestamps falls inside it. Events belong to no semester or course, so
// they are left out when either filter is set.
func (s *CalendarService) ProjectCalendar(ctx context.Context, params CalendarParams) (view CalendarView, err error) {
	if s == nil || s.reader == nil {
		return CalendarView{}, fmt.Errorf("CalendarService is not configured")
	}

	logger := s.loggerWith(ctx, "ProjectCalendar", params)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to project calendar", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "calendar projected",
			"planner_count", len(view.PlannerItems),
			"exam_count", len(view.Exams),
			"event_count", len(view.Events),
			"session_count", len(view.Sessions),
		)
	}()

	if params, err = normalizeCalendarParams(params); err != nil {
		return CalendarView{}, err
	}
	return s.project(ctx, params)
}

// ExpandSessions places the weekly sessions matching params on every date of
// the range.
func (s *CalendarService) ExpandSessions(ctx context.Context, params CalendarParams) (occurrences []recurrence.Occurrence, err error) {
	if s == nil || s.reader == nil {
		return nil, fmt.Errorf("CalendarService is not configured")
	}

	logger := s.loggerWith(ctx, "ExpandSessions", params)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to expand sessions", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("occurrence_count", len(occurrences)).DebugContext(ctx, "sessions expanded")
	}()

	if params, err = normalizeCalendarParams(params); err != nil {
		return nil, err
	}
	sessions, err := s.reader.ListSessions(ctx, sessionFilter(params))
	if err != nil {
		return nil, err
	}
	return s.expand(sessions, params)
}

// ExportICS renders the range as an iCalendar document: one VEVENT per
// session occurrence, then one per planner item and exam. DTSTAMP is the
// latest modification of the exported rows, so unchanged data renders the
// same bytes.
func (s *CalendarService) ExportICS(ctx context.Context, params CalendarParams) (body []byte, err error) {
	if s == nil || s.reader == nil {
		return nil, fmt.Errorf("CalendarService is not configured")
	}

	logger := s.loggerWith(ctx, "ExportICS", params)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to export calendar", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("bytes", len(body)).InfoContext(ctx, "calendar exported")
	}()

	if params, err = normalizeCalendarParams(params); err != nil {
		return nil, err
	}
	view, err := s.project(ctx, params)
	if err != nil {
		return nil, err
	}
	occurrences, err := s.expand(view.Sessions, params)
	if err != nil {
		return nil, err
	}

	calendar := ics.Calendar{
		ProdID: s.prodID,
		Stamp:  exportStamp(view),
		Events: make([]ics.Event, 0, len(occurrences)+len(view.PlannerItems)+len(view.Exams)),
	}
	for _, occurrence := range occurrences {
		calendar.Events = append(calendar.Events, ics.Event{
			UID:      fmt.Sprintf("session-%s-%s@%s", occurrence.SessionID, occurrence.Date.Format("20060102"), uidDomain),
			Start:    occurrence.Start,
			End:      occurrence.End,
			Summary:  occurrence.Course,
			Location: deref(occurrence.Room),
		})
	}
	for _, item := range view.PlannerItems {
		interval, ok := scheduler.PlannerInterval(plannerTimes(item))
		if !ok {
			continue
		}
		calendar.Events = append(calendar.Events, ics.Event{
			UID:         fmt.Sprintf("planner-%s@%s", item.ID, uidDomain),
			Start:       interval.Start,
			End:         interval.End,
			Summary:     item.Title,
			Description: deref(item.Notes),
		})
	}
	for _, exam := range view.Exams {
		interval := scheduler.ExamInterval(exam.ExamDate, exam.DurationMinutes)
		calendar.Events = append(calendar.Events, ics.Event{
			UID:         fmt.Sprintf("exam-%s@%s", exam.ID, uidDomain),
			Start:       interval.Start,
			End:         interval.End,
			Summary:     exam.Title,
			Description: deref(exam.Notes),
			Location:    deref(exam.Location),
		})
	}

	return calendar.Bytes(), nil
}

func exportStamp(view CalendarView) time.Time {
	stamp := stampEpoch
	later := func(t time.Time) {
		if t.After(stamp) {
			stamp = t
		}
	}
	for _, session := range view.Sessions {
		later(session.CourseUpdatedAt)
	}
	for _, item := range view.PlannerItems {
		later(item.UpdatedAt)
	}
	for _, exam := range view.Exams {
		later(exam.UpdatedAt)
	}
	return stamp.UTC()
}

func (s *CalendarService) project(ctx context.Context, params CalendarParams) (CalendarView, error) {
	owner := params.Principal.UserID
	window := &persistence.TimeRange{From: params.From, To: params.To}
	view := CalendarView{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		view.PlannerItems, err = s.reader.ListPlannerItems(gctx, persistence.PlannerFilter{
			UserID:     owner,
			Window:     window,
			SemesterID: params.SemesterID,
			CourseID:   params.CourseID,
			Status:     params.Status,
			Query:      params.Query,
		})
		return err
	})
	g.Go(func() (err error) {
		view.Exams, err = s.reader.ListExams(gctx, persistence.ExamFilter{
			UserID:     owner,
			Window:     window,
			SemesterID: params.SemesterID,
			CourseID:   params.CourseID,
			Query:      params.Query,
		})
		return err
	})
	if params.SemesterID == nil && params.CourseID == nil {
		g.Go(func() (err error) {
			view.Events, err = s.reader.ListEvents(gctx, persistence.EventFilter{
				UserID:      owner,
				StartsFrom:  &params.From,
				StartsUntil: &params.To,
				Query:       params.Query,
			})
			return err
		})
	}
	g.Go(func() (err error) {
		view.Sessions, err = s.reader.ListSessions(gctx, sessionFilter(params))
		return err
	})
	if err := g.Wait(); err != nil {
		return CalendarView{}, err
	}

	if view.Events == nil {
		view.Events = []persistence.StudentEvent{}
	}
	return view, nil
}

func (s *CalendarService) expand(sessions []persistence.SessionWithCourse, params CalendarParams) ([]recurrence.Occurrence, error) {
	rules := make([]recurrence.SessionRule, 0, len(sessions))
	for _, session := range sessions {
		rule, err := toSessionRule(session)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	occurrences, err := s.engine.ExpandSessions(rules, params.From, params.To)
	if err != nil {
		if errors.Is(err, recurrence.ErrRangeTooLarge) {
			vErr := &ValidationError{}
			vErr.add("to", "range is too large to expand")
			return nil, vErr
		}
		return nil, err
	}
	return occurrences, nil
}

func sessionFilter(params CalendarParams) persistence.CourseFilter {
	return persistence.CourseFilter{
		UserID:     params.Principal.UserID,
		SemesterID: params.SemesterID,
		CourseID:   params.CourseID,
		Query:      params.Query,
	}
}

// normalizeCalendarParams validates params and canonicalizes the optional
// filters: blank ids are dropped and status is upper-cased.
func normalizeCalendarParams(params CalendarParams) (CalendarParams, error) {
	if params.Principal.UserID == "" {
		return params, ErrUnauthorized
	}
	vErr := &ValidationError{}
	if params.From.IsZero() {
		vErr.add("from", "from is required")
	}
	if params.To.IsZero() {
		vErr.add("to", "to is required")
	}
	if !params.From.IsZero() && !params.To.IsZero() && params.To.Before(params.From) {
		vErr.add("to", "to must not precede from")
	}

	params.SemesterID = normalizeOptionalString(params.SemesterID)
	params.CourseID = normalizeOptionalString(params.CourseID)
	params.Query = strings.TrimSpace(params.Query)
	if status := normalizeOptionalString(params.Status); status != nil {
		value, ok := enumValue(*status, "", StatusTodo, StatusInProgress, StatusDone)
		if !ok {
			vErr.add("status", "status must be one of TODO, IN_PROGRESS, DONE")
		}
		params.Status = &value
	} else {
		params.Status = nil
	}

	if vErr.HasErrors() {
		return params, vErr
	}
	return params, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
