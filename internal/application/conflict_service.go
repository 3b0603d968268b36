package application

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/example/study-planner/internal/persistence"
	"github.com/example/study-planner/internal/recurrence"
	"github.com/example/study-planner/internal/scheduler"
)

// ScheduleReader exposes the owner scoped reads a conflict check needs.
type ScheduleReader interface {
	ListSessions(ctx context.Context, filter persistence.CourseFilter) ([]persistence.SessionWithCourse, error)
	ListPlannerItems(ctx context.Context, filter persistence.PlannerFilter) ([]persistence.PlannerItem, error)
	ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.StudentEvent, error)
	ListExams(ctx context.Context, filter persistence.ExamFilter) ([]persistence.Exam, error)
}

// ConflictService fetches the rows around a candidate interval and reports
// every stored entry overlapping it. It never writes.
type ConflictService struct {
	reader ScheduleReader
	logger *slog.Logger
}

// NewConflictService constructs a conflict service.
func NewConflictService(reader ScheduleReader, logger *slog.Logger) *ConflictService {
	return &ConflictService{reader: reader, logger: defaultLogger(logger)}
}

// DetectScheduleConflicts returns the entries of userID overlapping candidate,
// sorted by start. The result is empty, never nil, when nothing overlaps. Any
// failed read aborts the whole check.
func (s *ConflictService) DetectScheduleConflicts(ctx context.Context, userID string, candidate scheduler.Interval, opts ConflictOptions) (conflicts []scheduler.ConflictItem, err error) {
	if s == nil || s.reader == nil {
		return nil, fmt.Errorf("ConflictService is not configured")
	}

	candidate = scheduler.NormalizeInterval(candidate.Start, &candidate.End)
	logger := serviceLogger(ctx, s.logger, "ConflictService", "DetectScheduleConflicts",
		"principal_id", userID,
		"candidate_start", scheduler.FormatTimestamp(candidate.Start),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "conflict check failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("conflict_count", len(conflicts)).DebugContext(ctx, "conflict check completed")
	}()

	snapshot, err := s.fetchSnapshot(ctx, userID, candidate, opts)
	if err != nil {
		return nil, err
	}
	return scheduler.DetectConflicts(candidate, snapshot), nil
}

func (s *ConflictService) fetchSnapshot(ctx context.Context, userID string, candidate scheduler.Interval, opts ConflictOptions) (scheduler.Snapshot, error) {
	from, to := scheduler.QueryWindow(candidate)
	window := &persistence.TimeRange{From: from, To: to}
	weekday := string(scheduler.CandidateWeekday(candidate))

	var (
		sessions []persistence.SessionWithCourse
		planner  []persistence.PlannerItem
		events   []persistence.StudentEvent
		exams    []persistence.Exam
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sessions, err = s.reader.ListSessions(gctx, persistence.CourseFilter{UserID: userID, Weekday: &weekday})
		return err
	})
	g.Go(func() (err error) {
		planner, err = s.reader.ListPlannerItems(gctx, persistence.PlannerFilter{
			UserID:    userID,
			Window:    window,
			ExcludeID: opts.IgnorePlannerID,
		})
		return err
	})
	g.Go(func() (err error) {
		events, err = s.reader.ListEvents(gctx, persistence.EventFilter{
			UserID:      userID,
			StartsUntil: &to,
			ExcludeID:   opts.IgnoreEventID,
		})
		return err
	})
	g.Go(func() (err error) {
		exams, err = s.reader.ListExams(gctx, persistence.ExamFilter{
			UserID:    userID,
			Window:    window,
			ExcludeID: opts.IgnoreExamID,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return scheduler.Snapshot{}, err
	}

	snapshot := scheduler.Snapshot{
		Sessions:     make([]scheduler.Session, 0, len(sessions)),
		PlannerItems: make([]scheduler.PlannerItem, 0, len(planner)),
		Events:       make([]scheduler.Event, 0, len(events)),
		Exams:        make([]scheduler.Exam, 0, len(exams)),
	}
	for _, session := range sessions {
		converted, err := toSchedulerSession(session)
		if err != nil {
			return scheduler.Snapshot{}, err
		}
		snapshot.Sessions = append(snapshot.Sessions, converted)
	}
	for _, item := range planner {
		snapshot.PlannerItems = append(snapshot.PlannerItems, scheduler.PlannerItem{
			ID:    item.ID,
			Title: item.Title,
			Times: plannerTimes(item),
		})
	}
	for _, event := range events {
		snapshot.Events = append(snapshot.Events, scheduler.Event{
			ID:      event.ID,
			Title:   event.Title,
			StartAt: event.StartAt,
			EndAt:   event.EndAt,
		})
	}
	for _, exam := range exams {
		snapshot.Exams = append(snapshot.Exams, scheduler.Exam{
			ID:              exam.ID,
			Title:           exam.Title,
			ExamDate:        exam.ExamDate,
			DurationMinutes: exam.DurationMinutes,
		})
	}
	return snapshot, nil
}

func toSchedulerSession(session persistence.SessionWithCourse) (scheduler.Session, error) {
	rule, err := toSessionRule(session)
	if err != nil {
		return scheduler.Session{}, err
	}
	return scheduler.Session{
		ID:        rule.ID,
		Title:     session.CourseTitle,
		Weekday:   rule.Weekday,
		StartTime: rule.StartTime,
		EndTime:   rule.EndTime,
	}, nil
}

func toSessionRule(session persistence.SessionWithCourse) (recurrence.SessionRule, error) {
	weekday, err := recurrence.ParseWeekday(session.Weekday)
	if err != nil {
		return recurrence.SessionRule{}, fmt.Errorf("session %s: %w", session.ID, err)
	}
	start, err := recurrence.ParseClock(session.StartTime)
	if err != nil {
		return recurrence.SessionRule{}, fmt.Errorf("session %s start: %w", session.ID, err)
	}
	end, err := recurrence.ParseClock(session.EndTime)
	if err != nil {
		return recurrence.SessionRule{}, fmt.Errorf("session %s end: %w", session.ID, err)
	}
	return recurrence.SessionRule{
		ID:        session.ID,
		CourseID:  session.CourseID,
		Course:    courseLabel(session),
		Weekday:   weekday,
		StartTime: start,
		EndTime:   end,
		Room:      session.Room,
	}, nil
}

func courseLabel(session persistence.SessionWithCourse) string {
	if session.CourseCode == "" {
		return session.CourseTitle
	}
	return session.CourseCode + " " + session.CourseTitle
}

func plannerTimes(item persistence.PlannerItem) scheduler.PlannerTimes {
	return scheduler.PlannerTimes{StartAt: item.StartAt, DueAt: item.DueAt, PlannedFor: item.PlannedFor}
}
