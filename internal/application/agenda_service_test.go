package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/study-planner/internal/persistence"
	"github.com/example/study-planner/internal/scheduler"
)

type failingDetector struct {
	calls int
}

func (f *failingDetector) DetectScheduleConflicts(context.Context, string, scheduler.Interval, ConflictOptions) ([]scheduler.ConflictItem, error) {
	f.calls++
	return nil, errors.New("detector must not be called")
}

func TestCreatePlannerItemRejectsClassConflict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svcs := newServices(t)
	course := seedLinearAlgebra(t, svcs.courses)

	_, err := svcs.agenda.CreatePlannerItem(ctx, CreatePlannerItemParams{Principal: principal, Input: PlannerItemInput{
		Title:   "Study group",
		StartAt: ptr(monday(1, 9, 30)),
	}})

	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Len(t, conflictErr.Conflicts, 1)
	assert.Equal(t, scheduler.ConflictItem{
		Source:  scheduler.SourceClass,
		ID:      course.Sessions[0].ID,
		Title:   "Linear Algebra",
		StartAt: "2024-03-11T09:00:00.000Z",
		EndAt:   "2024-03-11T10:30:00.000Z",
	}, conflictErr.Conflicts[0])

	items, err := svcs.storage.ListPlannerItems(ctx, persistence.PlannerFilter{UserID: owner})
	require.NoError(t, err)
	assert.Empty(t, items)

	item, err := svcs.agenda.CreatePlannerItem(ctx, CreatePlannerItemParams{Principal: principal, Input: PlannerItemInput{
		Title:          "Study group",
		StartAt:        ptr(monday(1, 9, 30)),
		AllowConflicts: true,
	}})
	require.NoError(t, err)
	assert.Equal(t, StatusTodo, item.Status)
	assert.Equal(t, PriorityMedium, item.Priority)
	assert.Equal(t, CadenceNone, item.Cadence)
	assert.Equal(t, testNow, item.CreatedAt)
}

func TestCreateEventTouchingClassEndIsAccepted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svcs := newServices(t)
	seedLinearAlgebra(t, svcs.courses)

	event, err := svcs.agenda.CreateEvent(ctx, CreateEventParams{Principal: principal, Input: EventInput{
		Title:   "Club meeting",
		StartAt: monday(0, 10, 30),
		EndAt:   ptr(monday(0, 11, 30)),
	}})
	require.NoError(t, err)

	stored, err := svcs.storage.GetEvent(ctx, owner, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Club meeting", stored.Title)
}

func TestCreatePlannerItemWithoutTimestampsSkipsCheck(t *testing.T) {
	t.Parallel()

	storage := newStorage(t)
	detector := &failingDetector{}
	svc := NewAgendaService(storage, storage, detector, NewOwnerLocks(), sequentialIDs("p"), fixedNow, discardLogger())

	item, err := svc.CreatePlannerItem(context.Background(), CreatePlannerItemParams{Principal: principal, Input: PlannerItemInput{
		Title:  "Someday",
		Status: "in_progress",
	}})
	require.NoError(t, err)
	assert.Equal(t, "p-1", item.ID)
	assert.Equal(t, StatusInProgress, item.Status)
	assert.Zero(t, detector.calls)
}

func TestUpdatePlannerItemDoesNotConflictWithItself(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svcs := newServices(t)

	input := PlannerItemInput{Title: "Essay", StartAt: ptr(monday(0, 14, 0)), DueAt: ptr(monday(0, 16, 0))}
	item, err := svcs.agenda.CreatePlannerItem(ctx, CreatePlannerItemParams{Principal: principal, Input: input})
	require.NoError(t, err)

	input.Title = "Essay (final)"
	input.Status = StatusDone
	updated, err := svcs.agenda.UpdatePlannerItem(ctx, UpdatePlannerItemParams{Principal: principal, ID: item.ID, Input: input})
	require.NoError(t, err)
	assert.Equal(t, item.ID, updated.ID)
	assert.Equal(t, item.CreatedAt, updated.CreatedAt)

	stored, err := svcs.storage.GetPlannerItem(ctx, owner, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Essay (final)", stored.Title)
	assert.Equal(t, StatusDone, stored.Status)
}

func TestExamConflictsWithEvent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svcs := newServices(t)

	event, err := svcs.agenda.CreateEvent(ctx, CreateEventParams{Principal: principal, Input: EventInput{
		Title:   "Career fair",
		StartAt: monday(0, 13, 0),
	}})
	require.NoError(t, err)

	_, err = svcs.agenda.CreateExam(ctx, CreateExamParams{Principal: principal, Input: ExamInput{
		Title:    "Midterm",
		ExamDate: monday(0, 12, 0),
	}})
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Len(t, conflictErr.Conflicts, 1)
	assert.Equal(t, scheduler.SourceEvent, conflictErr.Conflicts[0].Source)
	assert.Equal(t, event.ID, conflictErr.Conflicts[0].ID)

	exam, err := svcs.agenda.CreateExam(ctx, CreateExamParams{Principal: principal, Input: ExamInput{
		Title:           "Midterm",
		ExamDate:        monday(0, 12, 0),
		DurationMinutes: ptr(60),
	}})
	require.NoError(t, err)

	// moving the event onto the exam is rejected, moving it away is not
	_, err = svcs.agenda.UpdateEvent(ctx, UpdateEventParams{Principal: principal, ID: event.ID, Input: EventInput{
		Title:   "Career fair",
		StartAt: monday(0, 12, 30),
	}})
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, exam.ID, conflictErr.Conflicts[0].ID)

	_, err = svcs.agenda.UpdateEvent(ctx, UpdateEventParams{Principal: principal, ID: event.ID, Input: EventInput{
		Title:   "Career fair",
		StartAt: monday(0, 15, 0),
	}})
	require.NoError(t, err)

	_, err = svcs.agenda.UpdateExam(ctx, UpdateExamParams{Principal: principal, ID: exam.ID, Input: ExamInput{
		Title:           "Midterm",
		ExamDate:        monday(0, 12, 0),
		DurationMinutes: ptr(90),
	}})
	require.NoError(t, err)
}

func TestAgendaValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svcs := newServices(t)

	_, err := svcs.agenda.CreatePlannerItem(ctx, CreatePlannerItemParams{Input: PlannerItemInput{Title: "x"}})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svcs.agenda.CreatePlannerItem(ctx, CreatePlannerItemParams{Principal: principal, Input: PlannerItemInput{
		Title:    "  ",
		Status:   "LATER",
		Priority: "urgent",
	}})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "title")
	assert.Contains(t, vErr.FieldErrors, "status")
	assert.Contains(t, vErr.FieldErrors, "priority")

	_, err = svcs.agenda.CreateExam(ctx, CreateExamParams{Principal: principal, Input: ExamInput{
		Title:           "Quiz",
		DurationMinutes: ptr(0),
	}})
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "examDate")
	assert.Contains(t, vErr.FieldErrors, "durationMinutes")

	_, err = svcs.agenda.CreateEvent(ctx, CreateEventParams{Principal: principal, Input: EventInput{Title: "No start"}})
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "startAt")
}

func TestAgendaRejectsForeignReferences(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svcs := newServices(t)
	course := seedLinearAlgebra(t, svcs.courses)

	_, err := svcs.agenda.CreateExam(ctx, CreateExamParams{Principal: Principal{UserID: "intruder"}, Input: ExamInput{
		Title:      "Quiz",
		ExamDate:   monday(0, 12, 0),
		CourseID:   &course.ID,
		SemesterID: ptr("missing"),
	}})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "course does not exist", vErr.FieldErrors["courseId"])
	assert.Equal(t, "semester does not exist", vErr.FieldErrors["semesterId"])
}

func TestAgendaNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svcs := newServices(t)

	_, err := svcs.agenda.UpdateEvent(ctx, UpdateEventParams{Principal: principal, ID: "missing", Input: EventInput{Title: "x", StartAt: monday(0, 9, 0)}})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svcs.agenda.DeletePlannerItem(ctx, DeleteParams{Principal: principal, ID: "missing"}), ErrNotFound)
	assert.ErrorIs(t, svcs.agenda.DeleteExam(ctx, DeleteParams{Principal: principal, ID: "missing"}), ErrNotFound)
	assert.ErrorIs(t, svcs.agenda.DeleteEvent(ctx, DeleteParams{Principal: principal, ID: "missing"}), ErrNotFound)

	event, err := svcs.agenda.CreateEvent(ctx, CreateEventParams{Principal: principal, Input: EventInput{Title: "x", StartAt: monday(0, 9, 0)}})
	require.NoError(t, err)
	assert.ErrorIs(t, svcs.agenda.DeleteEvent(ctx, DeleteParams{Principal: Principal{UserID: "intruder"}, ID: event.ID}), ErrNotFound)
	assert.NoError(t, svcs.agenda.DeleteEvent(ctx, DeleteParams{Principal: principal, ID: event.ID}))
}

func TestConcurrentOverlappingCreatesAdmitOne(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svcs := newServices(t)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svcs.agenda.CreateEvent(ctx, CreateEventParams{Principal: principal, Input: EventInput{
				Title:   "Seminar",
				StartAt: monday(0, 18, 0),
			}})
			var conflictErr *ConflictError
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.As(err, &conflictErr):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, conflicts)
}
