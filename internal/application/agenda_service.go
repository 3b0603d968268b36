package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/study-planner/internal/persistence"
	"github.com/example/study-planner/internal/scheduler"
)

const maxTitleLength = 200

// AgendaStore persists the time-bound entries of the agenda.
type AgendaStore interface {
	persistence.PlannerRepository
	persistence.ExamRepository
	persistence.EventRepository
}

// ReferenceLookup resolves the owner scoped semester and course references.
type ReferenceLookup interface {
	GetSemester(ctx context.Context, userID, id string) (persistence.Semester, error)
	GetCourse(ctx context.Context, userID, id string) (persistence.Course, error)
}

// ConflictDetector reports stored entries overlapping a candidate interval.
type ConflictDetector interface {
	DetectScheduleConflicts(ctx context.Context, userID string, candidate scheduler.Interval, opts ConflictOptions) ([]scheduler.ConflictItem, error)
}

// AgendaService creates, replaces and deletes planner items, exams and events.
// Creates and updates are rejected with a *ConflictError when the new interval
// overlaps stored entries, unless the input allows conflicts.
type AgendaService struct {
	store       AgendaStore
	references  ReferenceLookup
	conflicts   ConflictDetector
	locks       *OwnerLocks
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAgendaService wires dependencies for agenda operations. A nil locks
// value leaves check-then-write unserialized.
func NewAgendaService(store AgendaStore, references ReferenceLookup, conflicts ConflictDetector, locks *OwnerLocks, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AgendaService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AgendaService{
		store:       store,
		references:  references,
		conflicts:   conflicts,
		locks:       locks,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AgendaService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AgendaService", operation, attrs...)
}

// CreatePlannerItem validates and stores a new planner item.
func (s *AgendaService) CreatePlannerItem(ctx context.Context, params CreatePlannerItemParams) (item persistence.PlannerItem, err error) {
	if s == nil || s.store == nil {
		return persistence.PlannerItem{}, fmt.Errorf("AgendaService is not configured")
	}

	logger := s.loggerWith(ctx, "CreatePlannerItem", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create planner item", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("planner_item_id", item.ID).InfoContext(ctx, "planner item created")
	}()

	owner := params.Principal.UserID
	if owner == "" {
		return persistence.PlannerItem{}, ErrUnauthorized
	}

	item, vErr := buildPlannerItem(params.Input)
	if vErr.HasErrors() {
		return persistence.PlannerItem{}, vErr
	}
	if err = s.ensureReferences(ctx, owner, item.SemesterID, item.CourseID); err != nil {
		return persistence.PlannerItem{}, err
	}

	item.ID = s.idGenerator()
	item.UserID = owner
	item.CreatedAt = s.now().UTC()
	item.UpdatedAt = item.CreatedAt

	unlock := s.locks.Lock(owner)
	defer unlock()

	if err = s.gate(ctx, owner, plannerCandidate(item), params.Input.AllowConflicts, ConflictOptions{}); err != nil {
		return persistence.PlannerItem{}, err
	}
	if err = s.store.CreatePlannerItem(ctx, item); err != nil {
		return persistence.PlannerItem{}, mapRepoError(err)
	}
	return item, nil
}

// UpdatePlannerItem replaces the mutable fields of an owned planner item.
func (s *AgendaService) UpdatePlannerItem(ctx context.Context, params UpdatePlannerItemParams) (item persistence.PlannerItem, err error) {
	if s == nil || s.store == nil {
		return persistence.PlannerItem{}, fmt.Errorf("AgendaService is not configured")
	}

	logger := s.loggerWith(ctx, "UpdatePlannerItem",
		"principal_id", params.Principal.UserID,
		"planner_item_id", params.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update planner item", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "planner item updated")
	}()

	owner := params.Principal.UserID
	if owner == "" {
		return persistence.PlannerItem{}, ErrUnauthorized
	}

	existing, err := s.store.GetPlannerItem(ctx, owner, params.ID)
	if err != nil {
		return persistence.PlannerItem{}, mapRepoError(err)
	}

	item, vErr := buildPlannerItem(params.Input)
	if vErr.HasErrors() {
		return persistence.PlannerItem{}, vErr
	}
	if err = s.ensureReferences(ctx, owner, item.SemesterID, item.CourseID); err != nil {
		return persistence.PlannerItem{}, err
	}

	item.ID = existing.ID
	item.UserID = owner
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = s.now().UTC()

	unlock := s.locks.Lock(owner)
	defer unlock()

	if err = s.gate(ctx, owner, plannerCandidate(item), params.Input.AllowConflicts, ConflictOptions{IgnorePlannerID: item.ID}); err != nil {
		return persistence.PlannerItem{}, err
	}
	if err = s.store.UpdatePlannerItem(ctx, item); err != nil {
		return persistence.PlannerItem{}, mapRepoError(err)
	}
	return item, nil
}

// DeletePlannerItem removes an owned planner item.
func (s *AgendaService) DeletePlannerItem(ctx context.Context, params DeleteParams) (err error) {
	if s == nil || s.store == nil {
		return fmt.Errorf("AgendaService is not configured")
	}
	logger := s.loggerWith(ctx, "DeletePlannerItem", "principal_id", params.Principal.UserID, "planner_item_id", params.ID)
	defer s.logDelete(ctx, logger, "planner item", &err)

	if params.Principal.UserID == "" {
		return ErrUnauthorized
	}
	return mapRepoError(s.store.DeletePlannerItem(ctx, params.Principal.UserID, params.ID))
}

// CreateExam validates and stores a new exam.
func (s *AgendaService) CreateExam(ctx context.Context, params CreateExamParams) (exam persistence.Exam, err error) {
	if s == nil || s.store == nil {
		return persistence.Exam{}, fmt.Errorf("AgendaService is not configured")
	}

	logger := s.loggerWith(ctx, "CreateExam", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create exam", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("exam_id", exam.ID).InfoContext(ctx, "exam created")
	}()

	owner := params.Principal.UserID
	if owner == "" {
		return persistence.Exam{}, ErrUnauthorized
	}

	exam, vErr := buildExam(params.Input)
	if vErr.HasErrors() {
		return persistence.Exam{}, vErr
	}
	if err = s.ensureReferences(ctx, owner, exam.SemesterID, exam.CourseID); err != nil {
		return persistence.Exam{}, err
	}

	exam.ID = s.idGenerator()
	exam.UserID = owner
	exam.CreatedAt = s.now().UTC()
	exam.UpdatedAt = exam.CreatedAt

	unlock := s.locks.Lock(owner)
	defer unlock()

	candidate := scheduler.ExamInterval(exam.ExamDate, exam.DurationMinutes)
	if err = s.gate(ctx, owner, &candidate, params.Input.AllowConflicts, ConflictOptions{}); err != nil {
		return persistence.Exam{}, err
	}
	if err = s.store.CreateExam(ctx, exam); err != nil {
		return persistence.Exam{}, mapRepoError(err)
	}
	return exam, nil
}

// UpdateExam replaces the mutable fields of an owned exam.
func (s *AgendaService) UpdateExam(ctx context.Context, params UpdateExamParams) (exam persistence.Exam, err error) {
	if s == nil || s.store == nil {
		return persistence.Exam{}, fmt.Errorf("AgendaService is not configured")
	}

	logger := s.loggerWith(ctx, "UpdateExam", "principal_id", params.Principal.UserID, "exam_id", params.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update exam", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "exam updated")
	}()

	owner := params.Principal.UserID
	if owner == "" {
		return persistence.Exam{}, ErrUnauthorized
	}

	existing, err := s.store.GetExam(ctx, owner, params.ID)
	if err != nil {
		return persistence.Exam{}, mapRepoError(err)
	}

	exam, vErr := buildExam(params.Input)
	if vErr.HasErrors() {
		return persistence.Exam{}, vErr
	}
	if err = s.ensureReferences(ctx, owner, exam.SemesterID, exam.CourseID); err != nil {
		return persistence.Exam{}, err
	}

	exam.ID = existing.ID
	exam.UserID = owner
	exam.CreatedAt = existing.CreatedAt
	exam.UpdatedAt = s.now().UTC()

	unlock := s.locks.Lock(owner)
	defer unlock()

	candidate := scheduler.ExamInterval(exam.ExamDate, exam.DurationMinutes)
	if err = s.gate(ctx, owner, &candidate, params.Input.AllowConflicts, ConflictOptions{IgnoreExamID: exam.ID}); err != nil {
		return persistence.Exam{}, err
	}
	if err = s.store.UpdateExam(ctx, exam); err != nil {
		return persistence.Exam{}, mapRepoError(err)
	}
	return exam, nil
}

// DeleteExam removes an owned exam.
func (s *AgendaService) DeleteExam(ctx context.Context, params DeleteParams) (err error) {
	if s == nil || s.store == nil {
		return fmt.Errorf("AgendaService is not configured")
	}
	logger := s.loggerWith(ctx, "DeleteExam", "principal_id", params.Principal.UserID, "exam_id", params.ID)
	defer s.logDelete(ctx, logger, "exam", &err)

	if params.Principal.UserID == "" {
		return ErrUnauthorized
	}
	return mapRepoError(s.store.DeleteExam(ctx, params.Principal.UserID, params.ID))
}

// CreateEvent validates and stores a new event.
func (s *AgendaService) CreateEvent(ctx context.Context, params CreateEventParams) (event persistence.StudentEvent, err error) {
	if s == nil || s.store == nil {
		return persistence.StudentEvent{}, fmt.Errorf("AgendaService is not configured")
	}

	logger := s.loggerWith(ctx, "CreateEvent", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("event_id", event.ID).InfoContext(ctx, "event created")
	}()

	owner := params.Principal.UserID
	if owner == "" {
		return persistence.StudentEvent{}, ErrUnauthorized
	}

	event, vErr := buildEvent(params.Input)
	if vErr.HasErrors() {
		return persistence.StudentEvent{}, vErr
	}

	event.ID = s.idGenerator()
	event.UserID = owner
	event.CreatedAt = s.now().UTC()
	event.UpdatedAt = event.CreatedAt

	unlock := s.locks.Lock(owner)
	defer unlock()

	candidate := scheduler.EventInterval(event.StartAt, event.EndAt)
	if err = s.gate(ctx, owner, &candidate, params.Input.AllowConflicts, ConflictOptions{}); err != nil {
		return persistence.StudentEvent{}, err
	}
	if err = s.store.CreateEvent(ctx, event); err != nil {
		return persistence.StudentEvent{}, mapRepoError(err)
	}
	return event, nil
}

// UpdateEvent replaces the mutable fields of an owned event.
func (s *AgendaService) UpdateEvent(ctx context.Context, params UpdateEventParams) (event persistence.StudentEvent, err error) {
	if s == nil || s.store == nil {
		return persistence.StudentEvent{}, fmt.Errorf("AgendaService is not configured")
	}

	logger := s.loggerWith(ctx, "UpdateEvent", "principal_id", params.Principal.UserID, "event_id", params.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event updated")
	}()

	owner := params.Principal.UserID
	if owner == "" {
		return persistence.StudentEvent{}, ErrUnauthorized
	}

	existing, err := s.store.GetEvent(ctx, owner, params.ID)
	if err != nil {
		return persistence.StudentEvent{}, mapRepoError(err)
	}

	event, vErr := buildEvent(params.Input)
	if vErr.HasErrors() {
		return persistence.StudentEvent{}, vErr
	}

	event.ID = existing.ID
	event.UserID = owner
	event.CreatedAt = existing.CreatedAt
	event.UpdatedAt = s.now().UTC()

	unlock := s.locks.Lock(owner)
	defer unlock()

	candidate := scheduler.EventInterval(event.StartAt, event.EndAt)
	if err = s.gate(ctx, owner, &candidate, params.Input.AllowConflicts, ConflictOptions{IgnoreEventID: event.ID}); err != nil {
		return persistence.StudentEvent{}, err
	}
	if err = s.store.UpdateEvent(ctx, event); err != nil {
		return persistence.StudentEvent{}, mapRepoError(err)
	}
	return event, nil
}

// DeleteEvent removes an owned event.
func (s *AgendaService) DeleteEvent(ctx context.Context, params DeleteParams) (err error) {
	if s == nil || s.store == nil {
		return fmt.Errorf("AgendaService is not configured")
	}
	logger := s.loggerWith(ctx, "DeleteEvent", "principal_id", params.Principal.UserID, "event_id", params.ID)
	defer s.logDelete(ctx, logger, "event", &err)

	if params.Principal.UserID == "" {
		return ErrUnauthorized
	}
	return mapRepoError(s.store.DeleteEvent(ctx, params.Principal.UserID, params.ID))
}

func (s *AgendaService) logDelete(ctx context.Context, logger *slog.Logger, kind string, err *error) {
	if *err != nil {
		logger.ErrorContext(ctx, "failed to delete "+kind, "error", *err, "error_kind", ErrorKind(*err))
		return
	}
	logger.InfoContext(ctx, kind+" deleted")
}

// gate runs the conflict check for candidate. A nil candidate is a planner
// item without timestamps and is never checked.
func (s *AgendaService) gate(ctx context.Context, owner string, candidate *scheduler.Interval, allow bool, opts ConflictOptions) error {
	if allow || candidate == nil || s.conflicts == nil {
		return nil
	}
	conflicts, err := s.conflicts.DetectScheduleConflicts(ctx, owner, *candidate, opts)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}

func (s *AgendaService) ensureReferences(ctx context.Context, owner string, semesterID, courseID *string) error {
	if s.references == nil {
		return nil
	}
	vErr := &ValidationError{}
	if semesterID != nil {
		if _, err := s.references.GetSemester(ctx, owner, *semesterID); err != nil {
			if !errors.Is(err, persistence.ErrNotFound) {
				return err
			}
			vErr.add("semesterId", "semester does not exist")
		}
	}
	if courseID != nil {
		if _, err := s.references.GetCourse(ctx, owner, *courseID); err != nil {
			if !errors.Is(err, persistence.ErrNotFound) {
				return err
			}
			vErr.add("courseId", "course does not exist")
		}
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func plannerCandidate(item persistence.PlannerItem) *scheduler.Interval {
	interval, ok := scheduler.PlannerInterval(plannerTimes(item))
	if !ok {
		return nil
	}
	return &interval
}

func buildPlannerItem(input PlannerItemInput) (persistence.PlannerItem, *ValidationError) {
	vErr := &ValidationError{}
	validateTitle(input.Title, vErr)

	status, ok := enumValue(input.Status, StatusTodo, StatusTodo, StatusInProgress, StatusDone)
	if !ok {
		vErr.add("status", "status must be one of TODO, IN_PROGRESS, DONE")
	}
	priority, ok := enumValue(input.Priority, PriorityMedium, PriorityLow, PriorityMedium, PriorityHigh)
	if !ok {
		vErr.add("priority", "priority must be one of LOW, MEDIUM, HIGH")
	}
	cadence, ok := enumValue(input.Cadence, CadenceNone, CadenceNone, CadenceDaily, CadenceWeekly, CadenceMonthly)
	if !ok {
		vErr.add("cadence", "cadence must be one of NONE, DAILY, WEEKLY, MONTHLY")
	}

	return persistence.PlannerItem{
		SemesterID: normalizeOptionalString(input.SemesterID),
		CourseID:   normalizeOptionalString(input.CourseID),
		Title:      strings.TrimSpace(input.Title),
		Notes:      normalizeOptionalString(input.Notes),
		Status:     status,
		Priority:   priority,
		Cadence:    cadence,
		StartAt:    utcPtr(input.StartAt),
		DueAt:      utcPtr(input.DueAt),
		PlannedFor: utcPtr(input.PlannedFor),
	}, vErr
}

func buildExam(input ExamInput) (persistence.Exam, *ValidationError) {
	vErr := &ValidationError{}
	validateTitle(input.Title, vErr)
	if input.ExamDate.IsZero() {
		vErr.add("examDate", "examDate is required")
	}
	if input.DurationMinutes != nil && *input.DurationMinutes <= 0 {
		vErr.add("durationMinutes", "durationMinutes must be positive")
	}

	return persistence.Exam{
		SemesterID:      normalizeOptionalString(input.SemesterID),
		CourseID:        normalizeOptionalString(input.CourseID),
		Title:           strings.TrimSpace(input.Title),
		Location:        normalizeOptionalString(input.Location),
		Notes:           normalizeOptionalString(input.Notes),
		ExamDate:        input.ExamDate.UTC(),
		DurationMinutes: input.DurationMinutes,
	}, vErr
}

func buildEvent(input EventInput) (persistence.StudentEvent, *ValidationError) {
	vErr := &ValidationError{}
	validateTitle(input.Title, vErr)
	if input.StartAt.IsZero() {
		vErr.add("startAt", "startAt is required")
	}

	return persistence.StudentEvent{
		Title:       strings.TrimSpace(input.Title),
		Description: normalizeOptionalString(input.Description),
		Location:    normalizeOptionalString(input.Location),
		StartAt:     input.StartAt.UTC(),
		EndAt:       utcPtr(input.EndAt),
	}, vErr
}

func validateTitle(title string, vErr *ValidationError) {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		vErr.add("title", "title is required")
	case len([]rune(title)) > maxTitleLength:
		vErr.add("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
}

// enumValue upper-cases value and checks it against allowed. An empty value
// resolves to fallback.
func enumValue(value, fallback string, allowed ...string) (string, bool) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return fallback, true
	}
	for _, candidate := range allowed {
		if value == candidate {
			return value, true
		}
	}
	return value, false
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
