package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/study-planner/internal/persistence"
	"github.com/example/study-planner/internal/recurrence"
)

// CourseStore persists semesters and courses with their weekly sessions.
type CourseStore interface {
	persistence.SemesterRepository
	persistence.CourseRepository
}

// CourseService manages semesters, courses and their weekly class sessions.
type CourseService struct {
	store       CourseStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCourseService constructs a course service.
func NewCourseService(store CourseStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CourseService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CourseService{store: store, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *CourseService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CourseService", operation, attrs...)
}

// CreateSemester validates and stores a semester.
func (s *CourseService) CreateSemester(ctx context.Context, principal Principal, input SemesterInput) (semester persistence.Semester, err error) {
	if s == nil || s.store == nil {
		return persistence.Semester{}, fmt.Errorf("CourseService is not configured")
	}

	logger := s.loggerWith(ctx, "CreateSemester", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create semester", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("semester_id", semester.ID).InfoContext(ctx, "semester created")
	}()

	if principal.UserID == "" {
		return persistence.Semester{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.StartsOn.IsZero() {
		vErr.add("startsOn", "startsOn is required")
	}
	if input.EndsOn.IsZero() {
		vErr.add("endsOn", "endsOn is required")
	}
	startsOn, endsOn := dateOnly(input.StartsOn), dateOnly(input.EndsOn)
	if !input.StartsOn.IsZero() && !input.EndsOn.IsZero() && endsOn.Before(startsOn) {
		vErr.add("endsOn", "endsOn must not precede startsOn")
	}
	if vErr.HasErrors() {
		return persistence.Semester{}, vErr
	}

	now := s.now().UTC()
	semester = persistence.Semester{
		ID:        s.idGenerator(),
		UserID:    principal.UserID,
		Name:      strings.TrimSpace(input.Name),
		StartsOn:  startsOn,
		EndsOn:    endsOn,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = s.store.CreateSemester(ctx, semester); err != nil {
		return persistence.Semester{}, mapRepoError(err)
	}
	return semester, nil
}

// CreateCourse validates and stores a course together with its sessions.
func (s *CourseService) CreateCourse(ctx context.Context, principal Principal, input CourseInput) (course persistence.Course, err error) {
	if s == nil || s.store == nil {
		return persistence.Course{}, fmt.Errorf("CourseService is not configured")
	}

	logger := s.loggerWith(ctx, "CreateCourse", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create course", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("course_id", course.ID, "session_count", len(course.Sessions)).InfoContext(ctx, "course created")
	}()

	if principal.UserID == "" {
		return persistence.Course{}, ErrUnauthorized
	}

	vErr := validateCourseInput(input)
	semesterID := normalizeOptionalString(input.SemesterID)
	if semesterID != nil {
		if _, lookupErr := s.store.GetSemester(ctx, principal.UserID, *semesterID); lookupErr != nil {
			if !errors.Is(lookupErr, persistence.ErrNotFound) {
				return persistence.Course{}, lookupErr
			}
			vErr.add("semesterId", "semester does not exist")
		}
	}
	if vErr.HasErrors() {
		return persistence.Course{}, vErr
	}

	now := s.now().UTC()
	course = persistence.Course{
		ID:         s.idGenerator(),
		UserID:     principal.UserID,
		SemesterID: semesterID,
		Code:       strings.TrimSpace(input.Code),
		Title:      strings.TrimSpace(input.Title),
		Instructor: normalizeOptionalString(input.Instructor),
		Color:      normalizeOptionalString(input.Color),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, session := range input.Sessions {
		weekday, _ := recurrence.ParseWeekday(session.Weekday)
		start, _ := recurrence.ParseClock(session.StartTime)
		end, _ := recurrence.ParseClock(session.EndTime)
		course.Sessions = append(course.Sessions, persistence.ClassSession{
			ID:        s.idGenerator(),
			CourseID:  course.ID,
			Weekday:   string(weekday),
			StartTime: start.String(),
			EndTime:   end.String(),
			Room:      normalizeOptionalString(session.Room),
		})
	}

	if err = s.store.CreateCourse(ctx, course); err != nil {
		return persistence.Course{}, mapRepoError(err)
	}
	return course, nil
}

// DeleteCourse removes an owned course and its sessions.
func (s *CourseService) DeleteCourse(ctx context.Context, params DeleteParams) (err error) {
	if s == nil || s.store == nil {
		return fmt.Errorf("CourseService is not configured")
	}

	logger := s.loggerWith(ctx, "DeleteCourse", "principal_id", params.Principal.UserID, "course_id", params.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete course", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "course deleted")
	}()

	if params.Principal.UserID == "" {
		return ErrUnauthorized
	}
	return mapRepoError(s.store.DeleteCourse(ctx, params.Principal.UserID, params.ID))
}

// ListCourses returns the owner's courses with their sessions.
func (s *CourseService) ListCourses(ctx context.Context, params ListCoursesParams) (courses []persistence.Course, err error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("CourseService is not configured")
	}

	logger := s.loggerWith(ctx, "ListCourses", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list courses", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(courses)).DebugContext(ctx, "courses listed")
	}()

	if params.Principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	filter := persistence.CourseFilter{
		UserID:     params.Principal.UserID,
		SemesterID: normalizeOptionalString(params.SemesterID),
		Query:      params.Query,
	}
	if weekday := normalizeOptionalString(params.Weekday); weekday != nil {
		parsed, parseErr := recurrence.ParseWeekday(*weekday)
		if parseErr != nil {
			vErr := &ValidationError{}
			vErr.add("weekday", "weekday must be MONDAY through SUNDAY")
			return nil, vErr
		}
		value := string(parsed)
		filter.Weekday = &value
	}

	courses, err = s.store.ListCourses(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return courses, nil
}

func validateCourseInput(input CourseInput) *ValidationError {
	vErr := &ValidationError{}

	code := strings.TrimSpace(input.Code)
	switch {
	case code == "":
		vErr.add("code", "code is required")
	case len(code) > 32:
		vErr.add("code", "code must be at most 32 characters")
	}
	validateTitle(input.Title, vErr)

	for i, session := range input.Sessions {
		field := fmt.Sprintf("sessions[%d]", i)
		if _, err := recurrence.ParseWeekday(session.Weekday); err != nil {
			vErr.add(field+".weekday", "weekday must be MONDAY through SUNDAY")
		}
		start, startErr := recurrence.ParseClock(session.StartTime)
		if startErr != nil {
			vErr.add(field+".startTime", "startTime must be HH:mm")
		}
		end, endErr := recurrence.ParseClock(session.EndTime)
		if endErr != nil {
			vErr.add(field+".endTime", "endTime must be HH:mm")
		}
		if startErr == nil && endErr == nil && end.Minutes() <= start.Minutes() {
			vErr.add(field+".endTime", "endTime must be after startTime")
		}
	}

	return vErr
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
